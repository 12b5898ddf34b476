package steps

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/carebridge-backend/internal/types"
)

// Fast "done with this topic" phrasing, checked before any AI involvement.
var doneSignalPhrases = []string{
	"that's all",
	"thats all",
	"nothing else",
	"nothing more",
	"i'm done",
	"im done",
	"that's it",
	"thats it",
	"no more",
	"next question",
	"can we move on",
}

// Answers this short are treated as disengagement from the topic.
const shortAnswerTokenLimit = 2

// ReadyToLeaveTerm applies the two-tier completion-readiness check for the
// current term: cheap rule checks first, the advisory AI judgment only when
// the rules see nothing. A failed AI call means "keep going"; the evidence
// and question-count limits still bound the term.
func ReadyToLeaveTerm(ctx context.Context, deps Deps, conv *types.Conversation, answer, recent string) (bool, string) {
	if p := containsAny(answer, doneSignalPhrases); p != "" {
		return true, "done phrasing: " + p
	}
	// A bare affirmative is engagement, not disengagement; only short
	// answers with no evidence signal read as wanting out.
	if n := len(tokenize(answer)); n > 0 && n <= shortAnswerTokenLimit && !HasEvidence(answer) {
		return true, "very short answer"
	}

	if deps.AI == nil {
		return false, ""
	}
	user := strings.TrimSpace(strings.Join([]string{
		"RECENT_TURNS:",
		defaultString(recent, "(none)"),
		"",
		"LATEST_ANSWER:",
		answer,
	}, "\n"))

	start := time.Now()
	out, err := deps.AI.GenerateJSON(ctx, termDoneSystemPrompt, user, "term_exhausted", termDoneSchema())
	logAICall(ctx, deps, conv.ID, "term_done_judgment", start, err)
	if err != nil {
		return false, ""
	}
	done, ok := out["done"].(bool)
	if !ok || !done {
		return false, ""
	}
	reason, _ := out["reason"].(string)
	return true, "judgment: " + defaultString(strings.TrimSpace(reason), "topic exhausted")
}

// ModeForPhase keeps the conversation's stored mode consistent with where
// the state machine actually is.
func ModeForPhase(phase types.AssessmentPhase) types.ConversationMode {
	switch phase {
	case types.PhaseRoute, types.PhaseAskMain, types.PhaseAskFollowup, types.PhaseScore,
		types.PhaseTermComplete, types.PhaseDimComplete:
		return types.ModeDimensionAnalysis
	case types.PhaseCompleted:
		return types.ModeDimensionAnalysis
	default:
		return types.ModeFreeDialogue
	}
}
