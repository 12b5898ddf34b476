package steps

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/observability"
	"github.com/yungbote/carebridge-backend/internal/types"
)

// ScoreAnswer runs the scoring strategy chain for one accepted answer:
// option calibration, then the rule-based rubric, then the AI fallback. A
// weak rubric result is held back rather than returned immediately; if the
// AI fallback then fails too, the weak result is returned flagged as
// degraded, so the turn always produces a usable score.
func ScoreAnswer(ctx context.Context, deps Deps, convID uuid.UUID, q *catalog.Question, text, optionID, recent string) ScoreResult {
	res := scoreAnswer(ctx, deps, convID, q, text, optionID, recent)
	observability.Current().IncScoreMethod(res.Method, res.Degraded)
	return res
}

func scoreAnswer(ctx context.Context, deps Deps, convID uuid.UUID, q *catalog.Question, text, optionID, recent string) ScoreResult {
	if res, ok := scoreFromOption(q, optionID, text); ok {
		return res
	}

	rubric, strong := scoreFromRubric(text)
	if strong {
		return rubric
	}

	if res, ok := scoreFromAI(ctx, deps, convID, q, text, recent); ok {
		return res
	}

	// Every stronger strategy failed; proceed with the weakest result
	// rather than failing the turn.
	if rubric.Method != "" {
		rubric.Degraded = true
		rubric.Rationale += " (all stronger scoring strategies failed)"
		deps.Log.Warn("Scoring degraded to weak rubric result", "conversation_id", convID)
		return rubric
	}

	// Empty answer with no option: neutral floor.
	deps.Log.Warn("Scoring degraded to neutral default", "conversation_id", convID)
	return ScoreResult{
		Score:      3.5,
		Confidence: 0.1,
		Method:     string(types.MethodRuleBased),
		Rationale:  "neutral default: answer carried no scoreable signal",
		Degraded:   true,
	}
}

// RecordTermScore folds one answer's score into the running average for the
// term and upserts the single current TermScore row. Score is the mean over
// the state's pending list; confidence and method reflect the latest answer.
func RecordTermScore(ctx context.Context, deps Deps, convID uuid.UUID, state *types.AssessmentState, dimension, term string, res ScoreResult) (*types.TermScore, error) {
	key := types.TermKey(dimension, term)
	state.PendingScores[key] = append(state.PendingScores[key], res.Score)
	avg := mean(state.PendingScores[key])

	score := &types.TermScore{
		ConversationID: convID,
		Dimension:      dimension,
		Term:           term,
		Score:          types.ClampScore(avg),
		Rationale:      res.Rationale,
		Method:         types.ScoreMethod(res.Method),
		Confidence:     types.ClampConfidence(res.Confidence),
		SampleCount:    len(state.PendingScores[key]),
	}
	return deps.TermScores.Upsert(ctx, nil, score)
}
