package steps

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/types"
)

// AI-fallback confidence caps. Only a well-formed structured response may
// exceed what the rule-based rubric typically reports.
const (
	aiStructuredMaxConf = 0.85
	aiDegradedMaxConf   = 0.5
)

var aiScorePattern = regexp.MustCompile(`(?i)\bscore\b[^0-9]{0,10}([0-7](?:\.\d+)?)|\b([0-7](?:\.\d+)?)\s*(?:/|out of)\s*7`)

// Positive and negative vocabularies for the last-resort keyword-count
// heuristic over an unparseable AI response.
var (
	aiPositiveWords = []string{"well", "good", "strong", "manages", "managing", "aware", "engaged", "coping", "proactive", "high"}
	aiNegativeWords = []string{"poor", "struggles", "struggling", "unaware", "low", "limited", "difficulty", "minimal", "severe"}
)

// scoreFromAI asks the generation service for a rubric score and parses the
// reply in tiers: structured JSON first, then regex extraction from plain
// text, then a keyword-count heuristic. Each tier caps confidence lower than
// the one before it. Returns false only when the service is absent or every
// parse tier fails.
func scoreFromAI(ctx context.Context, deps Deps, convID uuid.UUID, q *catalog.Question, text, recent string) (ScoreResult, bool) {
	if deps.AI == nil {
		return ScoreResult{}, false
	}

	user := buildScoringUserPrompt(q, text, recent)

	start := time.Now()
	out, err := deps.AI.GenerateJSON(ctx, scoringSystemPrompt, user, "rubric_score", scoringSchema())
	logAICall(ctx, deps, convID, "score_structured", start, err)
	if err == nil {
		if res, ok := parseStructuredScore(out); ok {
			return res, true
		}
	}

	// Structured call failed or came back malformed; try plain text.
	start = time.Now()
	raw, err := deps.AI.GenerateText(ctx, scoringSystemPrompt, user)
	logAICall(ctx, deps, convID, "score_text", start, err)
	if err != nil {
		return ScoreResult{}, false
	}
	if res, ok := parseScoreByRegex(raw); ok {
		return res, true
	}
	return parseScoreByKeywords(raw)
}

func parseStructuredScore(out map[string]any) (ScoreResult, bool) {
	score, ok := numberField(out, "score")
	if !ok || score < types.ScoreMin || score > types.ScoreMax {
		return ScoreResult{}, false
	}
	rationale, _ := out["rationale"].(string)
	confidence, ok := numberField(out, "confidence")
	if !ok {
		confidence = 0.6
	}
	if confidence > aiStructuredMaxConf {
		confidence = aiStructuredMaxConf
	}
	return ScoreResult{
		Score:      types.ClampScore(score),
		Confidence: types.ClampConfidence(confidence),
		Method:     string(types.MethodAIFallback),
		Rationale:  defaultString(strings.TrimSpace(rationale), "structured rubric response"),
	}, true
}

func parseScoreByRegex(raw string) (ScoreResult, bool) {
	m := aiScorePattern.FindStringSubmatch(raw)
	if m == nil {
		return ScoreResult{}, false
	}
	lit := m[1]
	if lit == "" {
		lit = m[2]
	}
	score, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return ScoreResult{}, false
	}
	return ScoreResult{
		Score:      types.ClampScore(score),
		Confidence: aiDegradedMaxConf,
		Method:     string(types.MethodAIFallback),
		Rationale:  fmt.Sprintf("score %s extracted from unstructured response", lit),
		Degraded:   true,
	}, true
}

// parseScoreByKeywords estimates a score from the balance of positive and
// negative assessment language in an otherwise unparseable response.
func parseScoreByKeywords(raw string) (ScoreResult, bool) {
	pos := overlapCount(raw, aiPositiveWords)
	neg := overlapCount(raw, aiNegativeWords)
	if pos == 0 && neg == 0 {
		return ScoreResult{}, false
	}
	// Neutral midpoint 3.5, shifted half a point per net signal word.
	score := types.ClampScore(3.5 + 0.5*float64(pos-neg))
	return ScoreResult{
		Score:      score,
		Confidence: 0.3,
		Method:     string(types.MethodAIFallback),
		Rationale:  fmt.Sprintf("keyword heuristic over unparseable response (%d positive, %d negative)", pos, neg),
		Degraded:   true,
	}, true
}

func numberField(out map[string]any, key string) (float64, bool) {
	switch v := out[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
