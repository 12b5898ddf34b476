package steps

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/platform/apierr"
	"github.com/yungbote/carebridge-backend/internal/types"
)

// respond reloads the conversation and advances it one turn, the way the
// usecases layer does under the conversation lock.
func respond(t *testing.T, env *testEnv, convID uuid.UUID, in RespondInput) RespondOutput {
	t.Helper()
	conv, err := env.convs.GetByID(context.Background(), nil, convID)
	if err != nil {
		t.Fatalf("load conversation: %v", err)
	}
	out, err := Respond(context.Background(), env.deps, conv, in)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	return out
}

func newTargetedConversation(t *testing.T, env *testEnv) *types.Conversation {
	t.Helper()
	conv := newActiveConversation(t, env)
	conv.TargetDimension = "physiological"
	conv.Mode = types.ModeDimensionAnalysis
	if err := env.convs.Save(context.Background(), nil, conv); err != nil {
		t.Fatalf("save conversation: %v", err)
	}
	return conv
}

func TestAssessmentFlowToCompletion(t *testing.T) {
	env := newTestEnv(t)
	conv := newTargetedConversation(t, env)

	out := respond(t, env, conv.ID, RespondInput{Text: "I have severe trouble breathing at night"})
	if out.Routing == nil || out.Routing.Method != RouteMethodExact {
		t.Fatalf("first turn must route exactly: %+v", out.Routing)
	}
	if out.QuestionID == "" {
		t.Fatal("first turn must ask a question")
	}

	turns := []RespondInput{
		{Text: "yes, always when I climb the stairs", QuestionID: "q-breath-main"},
		{Text: "yes, resting definitely helps a little", QuestionID: "q-breath-main"},
		{Text: "yes, it is always worse lying down", QuestionID: "q-breath-night"},
		{Text: "yes, it is terrible every night", QuestionID: "q-sleep-main"},
	}
	var last RespondOutput
	for i, in := range turns {
		last = respond(t, env, conv.ID, in)
		if i < len(turns)-1 && last.Completed {
			t.Fatalf("conversation completed early at answer %d", i+1)
		}
	}
	if !last.Completed {
		t.Fatalf("conversation should complete after the dimension is spent: %+v", last)
	}
	if last.Profile == nil || len(last.Profile.Dimensions) == 0 {
		t.Fatal("completion must include a stage profile")
	}

	final, err := env.convs.GetByID(context.Background(), nil, conv.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if final.Status != types.ConversationCompleted {
		t.Fatalf("expected completed status, got %s", final.Status)
	}
	if final.Summary == "" {
		t.Fatal("completion must cache a summary on the conversation")
	}
	if final.CompletedAt == nil {
		t.Fatal("completion must set the timestamp")
	}
}

func TestDuplicateSubmissionRejectedWithoutMutation(t *testing.T) {
	env := newTestEnv(t)
	conv := newTargetedConversation(t, env)

	respond(t, env, conv.ID, RespondInput{Text: "my breathing keeps getting worse"})
	respond(t, env, conv.ID, RespondInput{Text: "yes, always when I climb the stairs", QuestionID: "q-breath-main"})
	respond(t, env, conv.ID, RespondInput{Text: "yes, resting definitely helps", QuestionID: "q-breath-main"})

	// q-breath-night is outstanding now; replaying the earlier answer must
	// be rejected and must not touch state.
	before, _ := env.convs.GetByID(context.Background(), nil, conv.ID)
	loaded, _ := env.convs.GetByID(context.Background(), nil, conv.ID)
	_, err := Respond(context.Background(), env.deps, loaded, RespondInput{
		Text:       "yes, resting definitely helps",
		QuestionID: "q-breath-main",
	})
	if err == nil {
		t.Fatal("superseded answer must be rejected")
	}
	if apierr.Code(err) != apierr.CodeInvalidAnswerState {
		t.Fatalf("expected invalid_answer_state, got %s", apierr.Code(err))
	}

	after, _ := env.convs.GetByID(context.Background(), nil, conv.ID)
	if after.TurnCount != before.TurnCount {
		t.Fatalf("turn count changed on rejected submission: %d -> %d", before.TurnCount, after.TurnCount)
	}
	if !bytes.Equal(after.Assessment, before.Assessment) {
		t.Fatal("assessment state changed on rejected submission")
	}
}

func TestOptionWithoutOutstandingQuestionRejected(t *testing.T) {
	env := newTestEnv(t)
	conv := newTargetedConversation(t, env)

	loaded, _ := env.convs.GetByID(context.Background(), nil, conv.ID)
	_, err := Respond(context.Background(), env.deps, loaded, RespondInput{Text: "always", OptionID: "opt-always"})
	if apierr.Code(err) != apierr.CodeInvalidAnswerState {
		t.Fatalf("expected invalid_answer_state, got %v", err)
	}
}

func TestCompletedConversationIsImmutable(t *testing.T) {
	env := newTestEnv(t)
	conv := newTargetedConversation(t, env)
	env.deps.Cfg.MaxQuestionsPerTerm = 1

	respond(t, env, conv.ID, RespondInput{Text: "my breathing is bad"})
	respond(t, env, conv.ID, RespondInput{Text: "it comes and goes", QuestionID: "q-breath-main"})
	last := respond(t, env, conv.ID, RespondInput{Text: "hard to describe", QuestionID: "q-sleep-main"})
	if !last.Completed {
		t.Fatalf("setup: conversation should be complete: %+v", last)
	}

	locked, _ := env.convs.GetByID(context.Background(), nil, conv.ID)
	scoresBefore, _ := env.terms.ListByConversation(context.Background(), nil, conv.ID)
	dimsBefore, _ := env.dims.ListByConversation(context.Background(), nil, conv.ID)

	out := respond(t, env, conv.ID, RespondInput{Text: "actually everything is fine now, rescore me"})
	if !out.Completed {
		t.Fatal("locked conversation must keep reporting completed")
	}
	if out.Reply != locked.Summary {
		t.Fatalf("locked conversation must serve the cached summary, got %q", out.Reply)
	}

	scoresAfter, _ := env.terms.ListByConversation(context.Background(), nil, conv.ID)
	if len(scoresAfter) != len(scoresBefore) {
		t.Fatal("term scores changed after lock")
	}
	for i := range scoresBefore {
		if scoresAfter[i].Score != scoresBefore[i].Score || scoresAfter[i].SampleCount != scoresBefore[i].SampleCount {
			t.Fatalf("term score mutated after lock: %+v -> %+v", scoresBefore[i], scoresAfter[i])
		}
	}
	dimsAfter, _ := env.dims.ListByConversation(context.Background(), nil, conv.ID)
	if len(dimsAfter) != len(dimsBefore) {
		t.Fatal("dimension scores changed after lock")
	}

	final, _ := env.convs.GetByID(context.Background(), nil, conv.ID)
	if final.TurnCount != locked.TurnCount {
		t.Fatal("turn count advanced after lock")
	}
}

func TestExhaustionDrivesCompletionNotLooping(t *testing.T) {
	env := newTestEnv(t)
	conv := newTargetedConversation(t, env)
	env.deps.Cfg.MaxQuestionsPerTerm = 1

	// Neutral answers carry no evidence; with a budget of one question per
	// term the dimension runs dry and the orchestrator must complete.
	out := respond(t, env, conv.ID, RespondInput{Text: "it varies day to day"})
	if out.Completed {
		t.Fatal("should still be asking")
	}
	out = respond(t, env, conv.ID, RespondInput{Text: "it varies with the weather", QuestionID: out.QuestionID})
	if out.Completed {
		t.Fatal("one more term to go")
	}
	out = respond(t, env, conv.ID, RespondInput{Text: "hard to put into words", QuestionID: out.QuestionID})
	if !out.Completed {
		t.Fatalf("exhausted dimension must complete, got %+v", out)
	}
}

func TestFreeDialogueTransitionsOnExplicitRequest(t *testing.T) {
	env := newTestEnv(t)
	conv := newActiveConversation(t, env)

	smalltalk := []string{
		"hello there",
		"my week has been slow",
		"mostly tired of the rain honestly",
	}
	for _, text := range smalltalk {
		out := respond(t, env, conv.ID, RespondInput{Text: text})
		if out.Mode != types.ModeFreeDialogue {
			t.Fatalf("opening turns must stay free dialogue, got %s", out.Mode)
		}
		if out.QuestionID != "" {
			t.Fatal("free dialogue must not ask catalog questions")
		}
	}

	out := respond(t, env, conv.ID, RespondInput{Text: "please start the assessment, my breathing worries me"})
	if out.Mode != types.ModeDimensionAnalysis {
		t.Fatalf("explicit request must enter assessment, got %s", out.Mode)
	}
	if out.QuestionID == "" {
		t.Fatal("entering assessment must ask a question")
	}
	if out.Routing == nil || out.Routing.Dimension != "physiological" {
		t.Fatalf("utterance should route to physiological: %+v", out.Routing)
	}
}
