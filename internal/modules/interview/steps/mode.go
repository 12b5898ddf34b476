package steps

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/carebridge-backend/internal/types"
)

// Explicit assessment requests always win the transition decision.
var assessmentRequestPhrases = []string{
	"start the assessment",
	"assess me",
	"do the assessment",
	"begin the assessment",
	"evaluate my",
	"check my needs",
	"take the questionnaire",
	"ask me the questions",
	"ready for the questions",
}

// ModeDecision is the dialogue mode manager's per-turn output.
type ModeDecision struct {
	Mode   types.ConversationMode
	Reason string
}

// SelectMode decides the dialogue mode for the incoming turn.
//
// A conversation created with a fixed target dimension is always in
// dimension analysis and never auto-routes. Otherwise the first free turns
// stay free unconditionally; from the turn after that the transition rules
// run: explicit request, then turn ceiling, then the advisory AI judgment,
// which degrades to the turn-count rule on any failure.
func SelectMode(ctx context.Context, deps Deps, conv *types.Conversation, state *types.AssessmentState, utterance, recent string) ModeDecision {
	cfg := deps.Cfg.WithDefaults()

	if conv.TargetDimension != "" {
		return ModeDecision{Mode: types.ModeDimensionAnalysis, Reason: "fixed target dimension"}
	}
	if conv.Mode == types.ModeDimensionAnalysis {
		return ModeDecision{Mode: types.ModeDimensionAnalysis, Reason: "assessment already underway"}
	}

	// FreeTurns already counts the incoming turn.
	if state.FreeTurns <= cfg.FreeTurnMinimum {
		return ModeDecision{Mode: types.ModeFreeDialogue, Reason: "within free dialogue minimum"}
	}

	if p := containsAny(utterance, assessmentRequestPhrases); p != "" {
		return ModeDecision{Mode: types.ModeDimensionAnalysis, Reason: "explicit request: " + p}
	}
	if state.FreeTurns >= cfg.TransitionCeiling {
		return ModeDecision{Mode: types.ModeDimensionAnalysis, Reason: "free dialogue turn ceiling reached"}
	}

	if state.FreeTurns > cfg.AIJudgmentMinTurn {
		if ready, reason, ok := judgeTransitionReady(ctx, deps, conv, utterance, recent); ok {
			if ready {
				return ModeDecision{Mode: types.ModeTransitioning, Reason: "readiness judgment: " + reason}
			}
			return ModeDecision{Mode: types.ModeFreeDialogue, Reason: "readiness judgment: " + reason}
		}
		// Advisory call failed; the turn-count rule already said stay.
	}
	return ModeDecision{Mode: types.ModeFreeDialogue, Reason: "turn-count rule"}
}

// judgeTransitionReady asks the generation service whether the user seems
// ready for structured assessment. The third return is false when the call
// failed or came back malformed, in which case the caller falls back to the
// turn-count rule.
func judgeTransitionReady(ctx context.Context, deps Deps, conv *types.Conversation, utterance, recent string) (bool, string, bool) {
	if deps.AI == nil {
		return false, "", false
	}
	user := strings.TrimSpace(strings.Join([]string{
		"RECENT_TURNS:",
		defaultString(recent, "(none)"),
		"",
		"LATEST_MESSAGE:",
		utterance,
	}, "\n"))

	start := time.Now()
	out, err := deps.AI.GenerateJSON(ctx, transitionSystemPrompt, user, "transition_readiness", transitionSchema())
	logAICall(ctx, deps, conv.ID, "transition_judgment", start, err)
	if err != nil {
		deps.Log.Warn("Transition judgment failed, degrading to turn rule", "error", err)
		return false, "", false
	}
	ready, ok := out["ready"].(bool)
	if !ok {
		return false, "", false
	}
	reason, _ := out["reason"].(string)
	return ready, defaultString(strings.TrimSpace(reason), "no reason given"), true
}
