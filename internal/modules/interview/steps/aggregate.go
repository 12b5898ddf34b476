package steps

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/types"
)

// Hierarchy imputation weight. Earlier (more basic) dimensions are imputed
// slightly above the dimension mean: basic needs are the most commonly
// impacted early, so an unasked basic term is more likely fine than an
// unasked higher-order one.
const imputationWeightStep = 0.05

// AggregateDimension folds a dimension's finalized term scores into one
// DimensionResult. Uncovered terms are never scored zero; they are imputed
// from the dimension mean adjusted by the hierarchy weight and flagged so
// consumers can tell real from inferred.
func AggregateDimension(snap *catalog.Snapshot, dimension string, scores []*types.TermScore) types.DimensionResult {
	out := types.DimensionResult{Dimension: dimension}

	terms := snap.TermsOf(dimension)
	byTerm := map[string]*types.TermScore{}
	for _, s := range scores {
		if strings.EqualFold(s.Dimension, dimension) {
			byTerm[strings.ToLower(s.Term)] = s
		}
	}

	var real []float64
	for _, t := range terms {
		if s, ok := byTerm[strings.ToLower(t.Name)]; ok {
			real = append(real, s.Score)
			out.TermScores = append(out.TermScores, types.TermResult{
				Term:       t.Name,
				Score:      s.Score,
				Confidence: s.Confidence,
				Method:     s.Method,
			})
		} else {
			out.UncoveredTerms = append(out.UncoveredTerms, t.Name)
		}
	}

	if len(terms) == 0 || len(real) == 0 {
		out.Stage = StageFor(0)
		return out
	}

	base := mean(real)
	out.CoverageRatio = float64(len(real)) / float64(len(terms))

	// Impute the uncovered terms and mix them into the aggregate.
	weight := imputationWeight(snap, dimension)
	total := base * float64(len(real))
	for _, name := range out.UncoveredTerms {
		imputed := types.ClampScore(base * weight)
		total += imputed
		out.TermScores = append(out.TermScores, types.TermResult{
			Term:    name,
			Score:   imputed,
			Method:  types.MethodRuleBased,
			Imputed: true,
		})
	}
	out.Score = types.ClampScore(total / float64(len(terms)))
	out.Stage = StageFor(out.Score)
	return out
}

// imputationWeight is >1 for early dimensions, tapering to 1.0 for the last.
func imputationWeight(snap *catalog.Snapshot, dimension string) float64 {
	rank := snap.HierarchyRank(dimension)
	total := len(snap.Dimensions())
	if rank <= 0 || total <= 1 {
		return 1.0
	}
	return 1.0 + imputationWeightStep*float64(total-rank)/float64(total-1)
}

// PersistDimensionScore upserts the aggregated row for one dimension.
func PersistDimensionScore(ctx context.Context, deps Deps, convID uuid.UUID, result types.DimensionResult) (*types.DimensionScore, error) {
	imputed, err := json.Marshal(result.UncoveredTerms)
	if err != nil {
		return nil, err
	}
	row := &types.DimensionScore{
		ConversationID: convID,
		Dimension:      result.Dimension,
		Score:          result.Score,
		CoverageRatio:  result.CoverageRatio,
		Stage:          result.Stage,
		MethodVersion:  types.AggregationMethodVersion,
		ImputedTerms:   imputed,
	}
	return deps.DimScores.Upsert(ctx, nil, row)
}

// BuildStageProfile recomputes the derived full-session profile from the
// persisted term scores. It is never the source of truth for individual
// scores.
func BuildStageProfile(ctx context.Context, deps Deps, convID uuid.UUID) (*types.StageProfile, error) {
	snap := deps.Catalog.Current()
	scores, err := deps.TermScores.ListByConversation(ctx, nil, convID)
	if err != nil {
		return nil, err
	}

	profile := &types.StageProfile{ConversationID: convID}
	var covered []float64
	for _, dim := range snap.Dimensions() {
		result := AggregateDimension(snap, dim.Name, scores)
		if len(result.TermScores) == 0 {
			continue
		}
		profile.Dimensions = append(profile.Dimensions, result)
		if result.CoverageRatio > 0 {
			covered = append(covered, result.Score)
		}
	}
	if len(covered) > 0 {
		profile.OverallScore = types.ClampScore(mean(covered))
	}
	profile.OverallStage = StageFor(profile.OverallScore)
	profile.Suggestions = suggestionsFor(profile.Dimensions)
	return profile, nil
}

// suggestionsFor points at the weakest covered areas, lowest first.
func suggestionsFor(dims []types.DimensionResult) []string {
	var out []string
	for _, d := range dims {
		if d.CoverageRatio == 0 {
			continue
		}
		switch d.Stage {
		case types.StageSevere, types.StageSignificant:
			out = append(out, "Consider prioritizing support around "+d.Dimension+"; answers there suggest day-to-day impact.")
		case types.StageModerate:
			out = append(out, "Keep building routines around "+d.Dimension+"; partial coping strategies are already in place.")
		}
	}
	return out
}
