package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/types"
)

func TestFrequencyCurveAlwaysBand(t *testing.T) {
	snap := newTestSnapshot(t)
	q, ok := snap.QuestionByID("q-breath-main")
	if !ok {
		t.Fatal("q-breath-main missing from test catalog")
	}

	res, ok := scoreFromOption(q, "opt-always", "")
	if !ok {
		t.Fatal("option calibration declined an explicit option id")
	}
	if res.Score < 6.0 || res.Score > 7.0 {
		t.Fatalf("frequency curve 'always' must land in [6.0, 7.0], got %f", res.Score)
	}
	if res.Method != string(types.MethodOptionMatch) {
		t.Fatalf("expected option_match, got %s", res.Method)
	}
}

func TestOptionLabelMatchWithModifiers(t *testing.T) {
	snap := newTestSnapshot(t)
	q, _ := snap.QuestionByID("q-breath-main")

	plain, ok := scoreFromOption(q, "", "often I suppose it happens")
	if !ok {
		t.Fatal("label match declined")
	}
	flat, _ := scoreFromOption(q, "opt-often", "")

	// Hedging ("I suppose") costs half a point and some confidence.
	if plain.Score >= flat.Score {
		t.Fatalf("hedged answer must score below flat pick: %f vs %f", plain.Score, flat.Score)
	}
	if plain.Confidence >= flat.Confidence {
		t.Fatalf("hedged answer must be less confident: %f vs %f", plain.Confidence, flat.Confidence)
	}

	qualified, _ := scoreFromOption(q, "opt-often", "often, but it has been worse lately")
	if qualified.Score >= flat.Score {
		t.Fatalf("qualification must lower the score: %f vs %f", qualified.Score, flat.Score)
	}

	emphasized, _ := scoreFromOption(q, "opt-often", "it definitely happens often")
	if emphasized.Score <= qualified.Score {
		t.Fatalf("emphasis must raise over qualification: %f vs %f", emphasized.Score, qualified.Score)
	}
}

func TestRubricAxes(t *testing.T) {
	res, strong := scoreFromRubric("My doctor explained the diagnosis, and I use oxygen equipment to manage the worst days")
	if !strong {
		t.Fatal("multi-axis answer should be a strong rubric result")
	}
	if res.Method != string(types.MethodRuleBased) {
		t.Fatalf("expected rule_based, got %s", res.Method)
	}
	if res.Score <= 0 || res.Score > 7 {
		t.Fatalf("rubric score out of range: %f", res.Score)
	}

	weak, strong := scoreFromRubric("I notice it")
	if strong {
		t.Fatal("single-hit answer should not be strong")
	}
	if weak.Confidence >= res.Confidence {
		t.Fatalf("weak rubric confidence %f should sit below strong %f", weak.Confidence, res.Confidence)
	}
}

func TestAIScoreTimeoutFallsBackToRubric(t *testing.T) {
	env := newTestEnv(t)
	env.ai.Err = errors.New("context deadline exceeded")
	env.deps.AI = env.ai

	// One rubric hit: too weak to stand alone, so the chain tries AI, which
	// times out; the rubric result must come back, not an error.
	res := ScoreAnswer(context.Background(), env.deps, uuid.New(), nil, "I notice it", "", "")
	if res.Method != string(types.MethodRuleBased) {
		t.Fatalf("expected rule_based after AI timeout, got %s", res.Method)
	}
	if !res.Degraded {
		t.Fatal("result accepted only after AI failure must be flagged degraded")
	}
	if len(env.ai.Calls) == 0 {
		t.Fatal("AI fallback should have been attempted")
	}
}

func TestAIStructuredScore(t *testing.T) {
	env := newTestEnv(t)
	env.ai.JSON = map[string]any{"score": 5.5, "rationale": "clear coping strategies", "confidence": 0.97}
	env.deps.AI = env.ai

	res, ok := scoreFromAI(context.Background(), env.deps, uuid.New(), nil, "long free answer", "")
	if !ok {
		t.Fatal("structured AI score declined")
	}
	if res.Score != 5.5 {
		t.Fatalf("expected 5.5, got %f", res.Score)
	}
	if res.Confidence > aiStructuredMaxConf {
		t.Fatalf("structured confidence must cap at %f, got %f", aiStructuredMaxConf, res.Confidence)
	}
	if res.Method != string(types.MethodAIFallback) {
		t.Fatalf("expected ai_fallback, got %s", res.Method)
	}
}

func TestAIRegexExtraction(t *testing.T) {
	env := newTestEnv(t)
	env.ai.JSONFunc = func(string) (map[string]any, error) {
		return nil, errors.New("schema rejected")
	}
	env.ai.Text = "Overall I would give this answer a score of 4.5 given the partial coping."
	env.deps.AI = env.ai

	res, ok := scoreFromAI(context.Background(), env.deps, uuid.New(), nil, "answer", "")
	if !ok {
		t.Fatal("regex extraction declined")
	}
	if res.Score != 4.5 {
		t.Fatalf("expected 4.5 extracted, got %f", res.Score)
	}
	if !res.Degraded || res.Confidence > aiDegradedMaxConf {
		t.Fatalf("regex tier must be degraded with capped confidence: %+v", res)
	}
}

func TestAIKeywordHeuristic(t *testing.T) {
	env := newTestEnv(t)
	env.ai.JSONFunc = func(string) (map[string]any, error) {
		return nil, errors.New("schema rejected")
	}
	env.ai.Text = "They seem aware and engaged, coping well with support."
	env.deps.AI = env.ai

	res, ok := scoreFromAI(context.Background(), env.deps, uuid.New(), nil, "answer", "")
	if !ok {
		t.Fatal("keyword heuristic declined")
	}
	if res.Score <= 3.5 {
		t.Fatalf("positive-heavy response should land above neutral, got %f", res.Score)
	}
}

// Bounds property: whatever the strategy and input, scores stay in [0,7] and
// confidence in [0,1].
func TestScoreBoundsAcrossStrategies(t *testing.T) {
	env := newTestEnv(t)
	snap := newTestSnapshot(t)
	q, _ := snap.QuestionByID("q-breath-main")

	inputs := []struct {
		name     string
		text     string
		optionID string
	}{
		{name: "empty", text: ""},
		{name: "hedged qualified", text: "maybe never, but I am not sure, however it could be"},
		{name: "keyword flood", text: "oxygen equipment nurse caregiver manage coping aware notice diagnosis treatment i do i take i use i exercise"},
		{name: "option floor", optionID: "opt-never"},
		{name: "option ceiling", optionID: "opt-always", text: "definitely absolutely always"},
	}
	for _, tc := range inputs {
		t.Run(tc.name, func(t *testing.T) {
			res := ScoreAnswer(context.Background(), env.deps, uuid.New(), q, tc.text, tc.optionID, "")
			if res.Score < 0 || res.Score > 7 {
				t.Fatalf("score out of bounds: %f", res.Score)
			}
			if res.Confidence < 0 || res.Confidence > 1 {
				t.Fatalf("confidence out of bounds: %f", res.Confidence)
			}
			if res.Method == "" {
				t.Fatal("every result must carry a method tag")
			}
		})
	}
}

func TestRecordTermScoreRunningAverage(t *testing.T) {
	env := newTestEnv(t)
	convID := uuid.New()
	state := types.NewAssessmentState()
	ctx := context.Background()

	first, err := RecordTermScore(ctx, env.deps, convID, state, "physiological", "breathing", ScoreResult{Score: 6, Confidence: 0.9, Method: string(types.MethodOptionMatch)})
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if first.Score != 6 || first.SampleCount != 1 {
		t.Fatalf("unexpected first score: %+v", first)
	}

	second, err := RecordTermScore(ctx, env.deps, convID, state, "physiological", "breathing", ScoreResult{Score: 4, Confidence: 0.7, Method: string(types.MethodRuleBased)})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if second.Score != 5 {
		t.Fatalf("running average of 6 and 4 should be 5, got %f", second.Score)
	}
	if second.SampleCount != 2 {
		t.Fatalf("expected sample count 2, got %d", second.SampleCount)
	}

	// Overwritten, not appended: the repo holds exactly one current row.
	stored, err := env.terms.Get(ctx, nil, convID, "physiological", "breathing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Score != 5 {
		t.Fatalf("stored row must hold the running average, got %f", stored.Score)
	}
}
