package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/platform/qdrant"
	"github.com/yungbote/carebridge-backend/internal/services"
)

const (
	routeAITopK          = 8
	routeAIMinConfidence = 0.4
	routeAIMaxConfidence = 0.9
)

// routeAI expands the utterance into assessment keywords with the generation
// service, embeds the expanded query, and searches the catalog-question
// index. The final pick is deterministic: candidates are re-ranked by
// keyword overlap with each candidate's term, and the vector score only
// breaks ties. Any external failure makes the strategy decline.
func routeAI(ctx context.Context, deps Deps, convID uuid.UUID, snap *catalog.Snapshot, utterance string) (RouteDecision, bool) {
	if deps.AI == nil || deps.Retrieval == nil {
		return RouteDecision{}, false
	}
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return RouteDecision{}, false
	}

	expanded, err := expandRouteKeywords(ctx, deps, convID, utterance)
	if err != nil {
		deps.Log.Warn("AI keyword expansion failed, declining ai_enhanced route", "error", err)
		return RouteDecision{}, false
	}

	query := utterance
	if len(expanded) > 0 {
		query = utterance + "\n" + strings.Join(expanded, " ")
	}
	hits := deps.Retrieval.Search(ctx, query, routeAITopK, services.IndexCatalogQuestions)
	if len(hits) == 0 {
		return RouteDecision{}, false
	}

	return rerankRouteCandidates(snap, utterance, expanded, hits)
}

// rerankRouteCandidates picks a (dimension, term) from vector matches by
// deterministic keyword overlap; no AI touches the final decision.
func rerankRouteCandidates(snap *catalog.Snapshot, utterance string, expanded []string, matches []services.RetrievalHit) (RouteDecision, bool) {
	probe := strings.ToLower(utterance + " " + strings.Join(expanded, " "))

	var (
		best     RouteDecision
		bestRank float64 = -1
	)
	for _, m := range matches {
		q, ok := snap.QuestionByID(m.ID)
		if !ok {
			continue
		}
		overlap := termOverlap(snap, probe, q.Dimension, q.Term)
		// Overlap dominates; the vector score contributes at most 0.2.
		rank := overlap + 0.2*clamp01(m.Score)
		if rank > bestRank {
			bestRank = rank
			conf := clamp01(0.4 + 0.5*overlap)
			if conf > routeAIMaxConfidence {
				conf = routeAIMaxConfidence
			}
			best = RouteDecision{
				Dimension:  q.Dimension,
				Term:       q.Term,
				Confidence: conf,
				Method:     RouteMethodAIEnhanced,
				Keywords:   expanded,
			}
		}
	}
	if bestRank < 0 || best.Confidence < routeAIMinConfidence {
		return RouteDecision{}, false
	}
	return best, true
}

// termOverlap is the fraction of a term's cluster vocabulary present in the
// probe text.
func termOverlap(snap *catalog.Snapshot, probe, dimension, termName string) float64 {
	d, ok := snap.DimensionByName(dimension)
	if !ok {
		return 0
	}
	for _, t := range d.Terms {
		if !strings.EqualFold(t.Name, termName) {
			continue
		}
		cluster := termCluster(snap, dimension, t)
		if len(cluster) == 0 {
			return 0
		}
		n := 0
		for _, phrase := range cluster {
			if containsPhrase(probe, phrase) {
				n++
			}
		}
		return float64(n) / float64(len(cluster))
	}
	return 0
}

func expandRouteKeywords(ctx context.Context, deps Deps, convID uuid.UUID, utterance string) ([]string, error) {
	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"keywords": map[string]any{
				"type":     "array",
				"maxItems": 8,
				"items":    map[string]any{"type": "string"},
			},
		},
		"required": []string{"keywords"},
	}

	start := time.Now()
	out, err := deps.AI.GenerateJSON(ctx, routeExpandSystemPrompt, "UTTERANCE:\n"+utterance, "route_keywords", schema)
	logAICall(ctx, deps, convID, "route_keyword_expansion", start, err)
	if err != nil {
		return nil, err
	}

	raw, ok := out["keywords"].([]any)
	if !ok {
		return nil, fmt.Errorf("keyword expansion returned no keywords array")
	}
	var keywords []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				keywords = append(keywords, s)
			}
		}
	}
	return keywords, nil
}

// IndexCatalog embeds every catalog question and upserts the vectors into
// the catalog namespace. Called at startup and after a catalog hot reload;
// failures are logged and routing simply runs without the ai_enhanced tier.
func IndexCatalog(ctx context.Context, deps Deps) error {
	if deps.AI == nil || deps.Vec == nil {
		return nil
	}
	snap := deps.Catalog.Current()

	var (
		ids    []string
		inputs []string
		metas  []map[string]any
	)
	for _, dim := range snap.Dimensions() {
		for _, q := range snap.ListByDimension(dim.Name) {
			text := q.Prompt
			if len(q.Patterns) > 0 {
				text += "\n" + strings.Join(q.Patterns, " ")
			}
			ids = append(ids, q.ID)
			inputs = append(inputs, text)
			metas = append(metas, map[string]any{
				"dimension": q.Dimension,
				"term":      q.Term,
			})
		}
	}
	if len(ids) == 0 {
		return nil
	}

	embs, err := deps.AI.Embed(ctx, inputs)
	if err != nil {
		return fmt.Errorf("embed catalog questions: %w", err)
	}
	if len(embs) != len(ids) {
		return fmt.Errorf("embed catalog questions: got %d vectors for %d inputs", len(embs), len(ids))
	}

	vectors := make([]qdrant.Vector, 0, len(ids))
	for i, id := range ids {
		vectors = append(vectors, qdrant.Vector{ID: id, Values: embs[i], Metadata: metas[i]})
	}
	if err := deps.Vec.Upsert(ctx, CatalogNamespace, vectors); err != nil {
		return fmt.Errorf("upsert catalog vectors: %w", err)
	}
	deps.Log.Info("Catalog question index refreshed", "questions", len(vectors))
	return nil
}
