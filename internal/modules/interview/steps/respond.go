package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/observability"
	"github.com/yungbote/carebridge-backend/internal/platform/apierr"
	"github.com/yungbote/carebridge-backend/internal/types"
)

type RespondInput struct {
	Text     string
	OptionID string

	// QuestionID echoes the question this message answers. Required when
	// OptionID is set; a mismatch with the outstanding question rejects the
	// submission without touching state.
	QuestionID string
}

type RespondOutput struct {
	Reply      string                 `json:"reply"`
	QuestionID string                 `json:"question_id,omitempty"`
	Mode       types.ConversationMode `json:"mode"`
	Phase      types.AssessmentPhase  `json:"phase"`

	Routing *RouteDecision `json:"routing,omitempty"`
	Scoring *ScoreResult   `json:"scoring,omitempty"`

	Completed bool                `json:"completed"`
	Profile   *types.StageProfile `json:"profile,omitempty"`
}

// Respond advances one conversation by one user turn. The caller must hold
// the conversation's lock; everything here assumes single-writer access to
// the assessment state.
func Respond(ctx context.Context, deps Deps, conv *types.Conversation, in RespondInput) (RespondOutput, error) {
	out := RespondOutput{}
	if deps.DB == nil || deps.Log == nil || deps.Catalog == nil ||
		deps.Conversations == nil || deps.Messages == nil || deps.TermScores == nil || deps.DimScores == nil {
		return out, fmt.Errorf("interview respond: missing deps")
	}
	if conv == nil || conv.ID == uuid.Nil {
		return out, fmt.Errorf("interview respond: missing conversation")
	}

	// Terminal lock: completed conversations serve the cached summary and
	// never mutate.
	if conv.Locked() {
		out.Reply = defaultString(conv.Summary, "This conversation has concluded. Thank you again for your time.")
		out.Mode = conv.Mode
		out.Phase = types.PhaseCompleted
		out.Completed = true
		return out, nil
	}

	state, err := types.DecodeAssessmentState(conv.Assessment)
	if err != nil {
		return out, fmt.Errorf("decode assessment state: %w", err)
	}

	// Answer-state validation happens before any mutation so a rejected
	// submission leaves the conversation byte-identical.
	if in.QuestionID != "" && in.QuestionID != state.OutstandingQuestionID {
		return out, apierr.InvalidAnswerState(fmt.Errorf("question %s is not outstanding", in.QuestionID))
	}
	if in.OptionID != "" && state.OutstandingQuestionID == "" {
		return out, apierr.InvalidAnswerState(fmt.Errorf("option submitted with no outstanding question"))
	}

	recent, _ := recentTurns(ctx, deps, conv.ID, 6)

	if _, err := deps.Messages.Append(ctx, nil, &types.Message{
		ConversationID: conv.ID,
		Role:           types.RoleUser,
		Text:           in.Text,
		QuestionID:     state.OutstandingQuestionID,
	}); err != nil {
		return out, fmt.Errorf("append user message: %w", err)
	}
	conv.TurnCount++

	if conv.Mode != types.ModeDimensionAnalysis {
		state.FreeTurns++
		md := SelectMode(ctx, deps, conv, state, in.Text, recent)
		conv.Mode = md.Mode
		if md.Mode == types.ModeFreeDialogue {
			reply := freeDialogueReply(ctx, deps, conv, in.Text, recent)
			return finishTurn(ctx, deps, conv, state, out, reply, "")
		}
		deps.Log.Info("Entering structured assessment",
			"conversation_id", conv.ID,
			"reason", md.Reason,
		)
	}

	if state.OutstandingQuestionID != "" {
		return handleAnswer(ctx, deps, conv, state, in, recent, out)
	}
	return askNext(ctx, deps, conv, state, in.Text, out)
}

// handleAnswer scores the answer to the outstanding question, tracks
// evidence, and either follows up, moves to the next term, or completes.
func handleAnswer(ctx context.Context, deps Deps, conv *types.Conversation, state *types.AssessmentState, in RespondInput, recent string, out RespondOutput) (RespondOutput, error) {
	snap := deps.Catalog.Current()
	q, _ := snap.QuestionByID(state.OutstandingQuestionID)

	dimension := state.CurrentDimension
	term := state.CurrentTerm
	if q != nil {
		dimension = defaultString(dimension, q.Dimension)
		term = defaultString(term, q.Term)
	}

	res := ScoreAnswer(ctx, deps, conv.ID, q, in.Text, in.OptionID, recent)
	out.Scoring = &res
	state.Phase = types.PhaseScore
	state.OutstandingQuestionID = ""
	state.OutstandingFollowup = false

	ts, err := RecordTermScore(ctx, deps, conv.ID, state, dimension, term, res)
	if err != nil {
		return out, fmt.Errorf("record term score: %w", err)
	}
	if deps.Notify != nil {
		deps.Notify.TermScored(conv.ID, ts)
	}
	TrackEvidence(state, dimension, term, in.Text)

	done := TermComplete(state, deps.Cfg, dimension, term)
	var doneReason string
	if !done {
		done, doneReason = ReadyToLeaveTerm(ctx, deps, conv, in.Text, recent)
	}

	if !done && q != nil && state.FollowupIndex < len(q.FollowUps) {
		followup := q.FollowUps[state.FollowupIndex]
		state.FollowupIndex++
		state.OutstandingQuestionID = q.ID
		state.OutstandingFollowup = true
		state.Phase = types.PhaseAskFollowup
		state.QuestionCounts[types.TermKey(dimension, term)]++
		out.QuestionID = q.ID
		return finishTurn(ctx, deps, conv, state, out, followup, q.ID)
	}

	if done {
		if doneReason != "" {
			deps.Log.Debug("Leaving term early", "conversation_id", conv.ID, "term", term, "reason", doneReason)
		}
		FinalizeTerm(state, dimension, term)
		state.Phase = types.PhaseTermComplete

		next := nextUncompletedTerm(snap, state, deps.Cfg, dimension)
		if next == "" {
			return completeConversation(ctx, deps, conv, state, dimension, out)
		}
		state.CurrentTerm = next
		state.FollowupIndex = 0
	}

	return askNext(ctx, deps, conv, state, in.Text, out)
}

// askNext routes if needed, selects the next question, and asks it. A
// routed-but-exhausted dimension flows to completion instead of looping.
func askNext(ctx context.Context, deps Deps, conv *types.Conversation, state *types.AssessmentState, utterance string, out RespondOutput) (RespondOutput, error) {
	snap := deps.Catalog.Current()

	if state.CurrentDimension == "" || state.CurrentTerm == "" {
		state.Phase = types.PhaseRoute
		dec, err := RouteUtterance(ctx, deps, conv.ID, state, utterance)
		if err != nil {
			return out, apierr.RoutingFailure(err)
		}
		if conv.TargetDimension != "" && !strings.EqualFold(dec.Dimension, conv.TargetDimension) {
			term := nextUncompletedTerm(snap, state, deps.Cfg, conv.TargetDimension)
			if term == "" {
				if d, ok := snap.DimensionByName(conv.TargetDimension); ok && len(d.Terms) > 0 {
					term = d.Terms[0].Name
				}
			}
			dec = RouteDecision{
				Dimension:  conv.TargetDimension,
				Term:       term,
				Confidence: dec.Confidence,
				Method:     dec.Method,
				Locked:     true,
				Reason:     "fixed target dimension",
			}
			state.RouteLockDimension = conv.TargetDimension
		}
		state.CurrentDimension = dec.Dimension
		state.CurrentTerm = dec.Term
		out.Routing = &dec
	}

	for {
		q, err := SelectQuestion(snap, state, state.CurrentDimension, state.CurrentTerm)
		if err == nil {
			key := types.TermKey(state.CurrentDimension, state.CurrentTerm)
			state.MarkAsked(q.ID)
			state.QuestionCounts[key]++
			state.OutstandingQuestionID = q.ID
			state.OutstandingFollowup = false
			state.FollowupIndex = 0
			state.Phase = types.PhaseAskMain
			conv.Mode = types.ModeDimensionAnalysis
			if deps.Notify != nil {
				deps.Notify.QuestionAsked(conv.ID, q.ID, q.Dimension, q.Term)
			}
			out.QuestionID = q.ID
			return finishTurn(ctx, deps, conv, state, out, q.Prompt, q.ID)
		}

		// Pool exhausted for this term; move to the next term or complete
		// the dimension.
		FinalizeTermIfScored(state, state.CurrentDimension, state.CurrentTerm)
		next := nextUncompletedTerm(snap, state, deps.Cfg, state.CurrentDimension)
		if next == "" {
			return completeConversation(ctx, deps, conv, state, state.CurrentDimension, out)
		}
		state.CurrentTerm = next
		state.FollowupIndex = 0
	}
}

// completeConversation aggregates the dimension, locks the conversation, and
// serves the generated summary.
func completeConversation(ctx context.Context, deps Deps, conv *types.Conversation, state *types.AssessmentState, dimension string, out RespondOutput) (RespondOutput, error) {
	snap := deps.Catalog.Current()
	state.Phase = types.PhaseDimComplete

	scores, err := deps.TermScores.ListByConversation(ctx, nil, conv.ID)
	if err != nil {
		return out, fmt.Errorf("list term scores: %w", err)
	}
	result := AggregateDimension(snap, dimension, scores)
	if _, err := PersistDimensionScore(ctx, deps, conv.ID, result); err != nil {
		return out, fmt.Errorf("persist dimension score: %w", err)
	}

	profile, err := BuildStageProfile(ctx, deps, conv.ID)
	if err != nil {
		return out, fmt.Errorf("build stage profile: %w", err)
	}

	summary := ""
	if deps.Summaries != nil {
		summary, err = deps.Summaries.Generate(ctx, conv.ID, profile)
		if err != nil {
			deps.Log.Warn("Summary generation errored", "conversation_id", conv.ID, "error", err)
		}
	}
	summary = defaultString(summary, "Thank you for completing the assessment. Your answers are saved.")

	state.Phase = types.PhaseCompleted
	conv.Summary = summary
	if types.StatusCanTransition(conv.Status, types.ConversationCompleted) {
		conv.Status = types.ConversationCompleted
		now := time.Now().UTC()
		conv.CompletedAt = &now
	}
	if deps.Notify != nil {
		deps.Notify.ConversationCompleted(conv.ID, profile.OverallStage)
	}
	observability.Current().IncConversationCompleted()

	out.Completed = true
	out.Profile = profile
	return finishTurn(ctx, deps, conv, state, out, summary, "")
}

// finishTurn appends the system reply, persists state, and fills the shared
// output fields.
func finishTurn(ctx context.Context, deps Deps, conv *types.Conversation, state *types.AssessmentState, out RespondOutput, reply, questionID string) (RespondOutput, error) {
	if _, err := deps.Messages.Append(ctx, nil, &types.Message{
		ConversationID: conv.ID,
		Role:           types.RoleSystem,
		Text:           reply,
		QuestionID:     questionID,
	}); err != nil {
		return out, fmt.Errorf("append system message: %w", err)
	}

	raw, err := state.Encode()
	if err != nil {
		return out, fmt.Errorf("encode assessment state: %w", err)
	}
	conv.Assessment = raw
	if err := deps.Conversations.Save(ctx, nil, conv); err != nil {
		return out, fmt.Errorf("save conversation: %w", err)
	}

	out.Reply = reply
	out.Mode = conv.Mode
	out.Phase = state.Phase
	return out, nil
}

// nextUncompletedTerm returns the dimension's first term that is neither
// completed nor out of question budget, in catalog order.
func nextUncompletedTerm(snap *catalog.Snapshot, state *types.AssessmentState, cfg Config, dimension string) string {
	cfg = cfg.WithDefaults()
	for _, t := range snap.TermsOf(dimension) {
		if state.TermCompleted(dimension, t.Name) {
			continue
		}
		if state.QuestionCounts[types.TermKey(dimension, t.Name)] >= cfg.MaxQuestionsPerTerm {
			continue
		}
		return t.Name
	}
	return ""
}

// FinalizeTermIfScored closes a term that ran out of questions, keeping its
// persisted average if any answers were collected.
func FinalizeTermIfScored(state *types.AssessmentState, dimension, term string) {
	if dimension == "" || term == "" {
		return
	}
	FinalizeTerm(state, dimension, term)
}

func recentTurns(ctx context.Context, deps Deps, convID uuid.UUID, n int) (string, error) {
	msgs, err := deps.Messages.LastN(ctx, nil, convID, n)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}

var freeDialogueTemplates = []string{
	"Thank you for sharing that with me. What has been on your mind most lately?",
	"That sounds like a lot to carry. How have the past few days been for you?",
	"I hear you. Is there a part of daily life that feels hardest right now?",
	"Thank you for telling me. What usually helps, even a little, when it gets difficult?",
}

var freeDialogueSystemPrompt = strings.TrimSpace(strings.Join([]string{
	"You are a warm, unhurried companion for a person managing a",
	"progressive illness. Respond briefly and kindly to their message,",
	"then ask one gentle open question about how they are doing.",
	"No medical advice, no diagnoses, no assessments.",
}, "\n"))

// freeDialogueReply answers an open-conversation turn, falling back to a
// rotating template when generation is unavailable.
func freeDialogueReply(ctx context.Context, deps Deps, conv *types.Conversation, text, recent string) string {
	fallback := freeDialogueTemplates[conv.TurnCount%len(freeDialogueTemplates)]
	if deps.AI == nil {
		return fallback
	}
	user := strings.TrimSpace(strings.Join([]string{
		"RECENT_TURNS:",
		defaultString(recent, "(none)"),
		"",
		"MESSAGE:",
		text,
	}, "\n"))

	start := time.Now()
	reply, err := deps.AI.GenerateText(ctx, freeDialogueSystemPrompt, user)
	logAICall(ctx, deps, conv.ID, "free_dialogue_reply", start, err)
	if err != nil || strings.TrimSpace(reply) == "" {
		return fallback
	}
	return strings.TrimSpace(reply)
}
