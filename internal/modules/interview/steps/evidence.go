package steps

import (
	"github.com/yungbote/carebridge-backend/internal/observability"
	"github.com/yungbote/carebridge-backend/internal/types"
)

// Strong-signal vocabularies. An answer containing any of these counts as
// one unit of positive evidence toward completing the current term; multiple
// signals in one answer still count once, so completion takes a predictable
// number of substantive turns.
var (
	affirmativeSignals = []string{
		"yes", "yeah", "yep", "definitely", "absolutely", "of course",
		"always", "certainly", "for sure", "i do", "it does",
	}
	severitySignals = []string{
		"severe", "severely", "serious", "terrible", "awful", "unbearable",
		"extreme", "extremely", "really bad", "very bad", "worst",
		"painful", "exhausting",
	}
	frequencySignals = []string{
		"always", "often", "frequently", "constantly", "every day",
		"every night", "daily", "nightly", "all the time", "most days",
		"regularly",
	}
)

// HasEvidence reports whether an answer carries a qualifying strong signal.
func HasEvidence(text string) bool {
	return containsAny(text, affirmativeSignals) != "" ||
		containsAny(text, severitySignals) != "" ||
		containsAny(text, frequencySignals) != ""
}

// TrackEvidence updates the per-term evidence counter for one answer and
// reports whether it qualified.
func TrackEvidence(state *types.AssessmentState, dimension, term, text string) bool {
	if !HasEvidence(text) {
		return false
	}
	state.EvidenceCounts[types.TermKey(dimension, term)]++
	return true
}

// TermComplete reports whether the current term has gathered enough: either
// the evidence threshold is met or the term has used its question budget,
// whichever comes first.
func TermComplete(state *types.AssessmentState, cfg Config, dimension, term string) bool {
	cfg = cfg.WithDefaults()
	key := types.TermKey(dimension, term)
	if state.EvidenceCounts[key] >= cfg.EvidenceThreshold {
		return true
	}
	return state.QuestionCounts[key] >= cfg.MaxQuestionsPerTerm
}

// FinalizeTerm closes out a completed term: the running score list is
// cleared (its average is already persisted on the TermScore row) and the
// term is recorded as done.
func FinalizeTerm(state *types.AssessmentState, dimension, term string) {
	key := types.TermKey(dimension, term)
	delete(state.PendingScores, key)
	state.MarkTermCompleted(dimension, term)
	observability.Current().IncTermCompleted()
}

// DimensionExhausted reports whether every term in the dimension is either
// completed or out of question budget. The selector returning no question
// for the current term combined with this check drives dimension completion
// instead of looping.
func DimensionExhausted(state *types.AssessmentState, cfg Config, terms []string, dimension string) bool {
	cfg = cfg.WithDefaults()
	for _, term := range terms {
		if state.TermCompleted(dimension, term) {
			continue
		}
		if state.QuestionCounts[types.TermKey(dimension, term)] < cfg.MaxQuestionsPerTerm {
			return false
		}
	}
	return true
}
