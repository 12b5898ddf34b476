package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/types"
)

func testConversation() *types.Conversation {
	return &types.Conversation{
		ID:            uuid.New(),
		ParticipantID: uuid.New(),
		Mode:          types.ModeFreeDialogue,
		Status:        types.ConversationActive,
	}
}

func TestFixedTargetAlwaysDimensionAnalysis(t *testing.T) {
	env := newTestEnv(t)
	conv := testConversation()
	conv.TargetDimension = "physiological"
	state := types.NewAssessmentState()

	md := SelectMode(context.Background(), env.deps, conv, state, "hello", "")
	if md.Mode != types.ModeDimensionAnalysis {
		t.Fatalf("fixed target must force dimension analysis, got %s", md.Mode)
	}
}

func TestFreeDialogueMinimumTurns(t *testing.T) {
	env := newTestEnv(t)
	conv := testConversation()
	state := types.NewAssessmentState()

	// Even an explicit request cannot shortcut the opening free turns.
	for turn := 1; turn <= 3; turn++ {
		state.FreeTurns = turn
		md := SelectMode(context.Background(), env.deps, conv, state, "please start the assessment", "")
		if md.Mode != types.ModeFreeDialogue {
			t.Fatalf("turn %d must stay free dialogue, got %s", turn, md.Mode)
		}
	}
}

func TestExplicitRequestAfterMinimum(t *testing.T) {
	env := newTestEnv(t)
	conv := testConversation()
	state := types.NewAssessmentState()
	state.FreeTurns = 4

	md := SelectMode(context.Background(), env.deps, conv, state, "ok, please start the assessment", "")
	if md.Mode != types.ModeDimensionAnalysis {
		t.Fatalf("explicit request after minimum must transition, got %s", md.Mode)
	}
}

func TestTurnCeilingForcesTransition(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Cfg.TransitionCeiling = 6
	conv := testConversation()
	state := types.NewAssessmentState()
	state.FreeTurns = 6

	md := SelectMode(context.Background(), env.deps, conv, state, "and then my sister visited", "")
	if md.Mode != types.ModeDimensionAnalysis {
		t.Fatalf("ceiling must force transition, got %s", md.Mode)
	}
}

func TestAIJudgmentAdvisory(t *testing.T) {
	env := newTestEnv(t)
	env.ai.JSON = map[string]any{"ready": true, "reason": "asking for guidance"}
	env.deps.AI = env.ai
	conv := testConversation()
	state := types.NewAssessmentState()
	state.FreeTurns = 4

	md := SelectMode(context.Background(), env.deps, conv, state, "I do not know what to do about all this", "")
	if md.Mode != types.ModeTransitioning {
		t.Fatalf("ready judgment should begin transition, got %s", md.Mode)
	}
}

func TestAIJudgmentFailureDegradesToTurnRule(t *testing.T) {
	env := newTestEnv(t)
	env.ai.Err = errors.New("service unavailable")
	env.deps.AI = env.ai
	conv := testConversation()
	state := types.NewAssessmentState()
	state.FreeTurns = 4

	md := SelectMode(context.Background(), env.deps, conv, state, "we watched a film last night", "")
	if md.Mode != types.ModeFreeDialogue {
		t.Fatalf("failed judgment must degrade to the turn rule, got %s", md.Mode)
	}
}

func TestReadyToLeaveTermRules(t *testing.T) {
	env := newTestEnv(t)
	conv := testConversation()

	if done, _ := ReadyToLeaveTerm(context.Background(), env.deps, conv, "that's all I can think of", ""); !done {
		t.Fatal("done phrasing must end the term")
	}
	if done, _ := ReadyToLeaveTerm(context.Background(), env.deps, conv, "fine thanks", ""); !done {
		t.Fatal("a very short non-evidence answer must end the term")
	}
	// A bare affirmative is evidence, not disengagement.
	if done, _ := ReadyToLeaveTerm(context.Background(), env.deps, conv, "yes", ""); done {
		t.Fatal("a bare affirmative must not end the term")
	}
	if done, _ := ReadyToLeaveTerm(context.Background(), env.deps, conv, "it mostly happens after meals when I lie down", ""); done {
		t.Fatal("a substantive answer must not end the term without AI judgment")
	}
}
