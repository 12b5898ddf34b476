package steps

import (
	"testing"

	"github.com/yungbote/carebridge-backend/internal/types"
)

func TestEvidenceSignals(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{name: "affirmative", text: "yes, it happens when I climb stairs", want: true},
		{name: "severity", text: "the pain is unbearable some mornings", want: true},
		{name: "frequency", text: "it wakes me up every night", want: true},
		{name: "neutral", text: "I had soup for lunch with my sister", want: false},
		{name: "empty", text: "", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasEvidence(tc.text); got != tc.want {
				t.Fatalf("HasEvidence(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestThreeAffirmativesCompleteTerm(t *testing.T) {
	cfg := Config{}.WithDefaults()
	state := types.NewAssessmentState()
	dim, term := "physiological", "breathing"

	answers := []string{
		"yes, it gets hard when I walk uphill",
		"always at night, it wakes me up",
		"yes, definitely worse than last month",
	}
	for i, answer := range answers {
		if TermComplete(state, cfg, dim, term) {
			t.Fatalf("term complete before answer %d, expected exactly 3", i+1)
		}
		if !TrackEvidence(state, dim, term, answer) {
			t.Fatalf("answer %d should count as evidence", i+1)
		}
	}
	if !TermComplete(state, cfg, dim, term) {
		t.Fatal("term must complete at exactly 3 qualifying answers")
	}
}

func TestNonEvidenceAnswersDoNotCount(t *testing.T) {
	state := types.NewAssessmentState()
	if TrackEvidence(state, "physiological", "sleep", "it varies, hard to say") {
		t.Fatal("neutral answer must not count as evidence")
	}
	if state.EvidenceCounts[types.TermKey("physiological", "sleep")] != 0 {
		t.Fatal("counter must stay at zero")
	}
}

func TestQuestionBudgetCompletesTerm(t *testing.T) {
	cfg := Config{MaxQuestionsPerTerm: 3}.WithDefaults()
	state := types.NewAssessmentState()
	key := types.TermKey("safety", "falls")

	state.QuestionCounts[key] = 2
	if TermComplete(state, cfg, "safety", "falls") {
		t.Fatal("term complete below question budget with no evidence")
	}
	state.QuestionCounts[key] = 3
	if !TermComplete(state, cfg, "safety", "falls") {
		t.Fatal("term must complete once the question budget is spent")
	}
}

func TestFinalizeTermClearsRunningScores(t *testing.T) {
	state := types.NewAssessmentState()
	key := types.TermKey("physiological", "breathing")
	state.PendingScores[key] = []float64{5, 6}

	FinalizeTerm(state, "physiological", "breathing")
	if _, ok := state.PendingScores[key]; ok {
		t.Fatal("finalize must clear the running score list")
	}
	if !state.TermCompleted("physiological", "breathing") {
		t.Fatal("finalize must mark the term completed")
	}
}

func TestDimensionExhausted(t *testing.T) {
	env := newTestEnv(t)
	snap := env.deps.Catalog.Current()
	cfg := Config{MaxQuestionsPerTerm: 2}.WithDefaults()
	state := types.NewAssessmentState()

	var terms []string
	for _, term := range snap.TermsOf("physiological") {
		terms = append(terms, term.Name)
	}
	if DimensionExhausted(state, cfg, terms, "physiological") {
		t.Fatal("fresh dimension cannot be exhausted")
	}

	state.MarkTermCompleted("physiological", "breathing")
	state.QuestionCounts[types.TermKey("physiological", "sleep")] = 2
	if !DimensionExhausted(state, cfg, terms, "physiological") {
		t.Fatal("all terms completed or out of budget means exhausted")
	}
}
