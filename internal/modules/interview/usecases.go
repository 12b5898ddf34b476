package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/modules/interview/steps"
	"github.com/yungbote/carebridge-backend/internal/platform/apierr"
	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/platform/openai"
	"github.com/yungbote/carebridge-backend/internal/platform/qdrant"
	"github.com/yungbote/carebridge-backend/internal/repos"
	"github.com/yungbote/carebridge-backend/internal/services"
	"github.com/yungbote/carebridge-backend/internal/types"
)

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	AI  openai.Client
	Vec qdrant.VectorStore

	Catalog *catalog.Store
	Cfg     steps.Config

	Conversations repos.ConversationRepo
	Messages      repos.MessageRepo
	TermScores    repos.TermScoreRepo
	DimScores     repos.DimensionScoreRepo
	AICalls       repos.AICallLogRepo

	Locks     services.ConversationLocker
	Retrieval services.RetrievalService
	Summaries services.SummaryService
	Notify    services.ConversationNotifier
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases { return Usecases{deps: deps} }

type (
	RespondInput  = steps.RespondInput
	RespondOutput = steps.RespondOutput
)

type CreateInput struct {
	ParticipantID   uuid.UUID
	TargetDimension string
}

func (u Usecases) stepDeps() steps.Deps {
	return steps.Deps{
		DB:            u.deps.DB,
		Log:           u.deps.Log,
		AI:            u.deps.AI,
		Vec:           u.deps.Vec,
		Catalog:       u.deps.Catalog,
		Cfg:           u.deps.Cfg,
		Conversations: u.deps.Conversations,
		Messages:      u.deps.Messages,
		TermScores:    u.deps.TermScores,
		DimScores:     u.deps.DimScores,
		AICalls:       u.deps.AICalls,
		Retrieval:     u.deps.Retrieval,
		Summaries:     u.deps.Summaries,
		Notify:        u.deps.Notify,
	}
}

// CreateConversation starts a new interview session. A non-empty target
// dimension pins the whole conversation to that dimension; it must name a
// dimension the catalog knows.
func (u Usecases) CreateConversation(ctx context.Context, in CreateInput) (*types.Conversation, error) {
	if in.ParticipantID == uuid.Nil {
		return nil, apierr.BadRequest(fmt.Errorf("participant id required"))
	}
	target := strings.TrimSpace(in.TargetDimension)
	mode := types.ModeFreeDialogue
	if target != "" {
		snap := u.deps.Catalog.Current()
		d, ok := snap.DimensionByName(target)
		if !ok {
			return nil, apierr.BadRequest(fmt.Errorf("unknown dimension %q", target))
		}
		target = d.Name
		mode = types.ModeDimensionAnalysis
	}

	state := types.NewAssessmentState()
	raw, err := state.Encode()
	if err != nil {
		return nil, err
	}
	conv, err := u.deps.Conversations.Create(ctx, nil, &types.Conversation{
		ParticipantID:   in.ParticipantID,
		Mode:            mode,
		Status:          types.ConversationActive,
		TargetDimension: target,
		Assessment:      raw,
	})
	if err != nil {
		return nil, err
	}
	if u.deps.Notify != nil {
		u.deps.Notify.ConversationCreated(conv.ID, conv.ParticipantID)
	}
	return conv, nil
}

// Respond processes one user message under the conversation's lock, in
// strict arrival order. A missing conversation id creates a fresh session
// for the participant rather than failing.
func (u Usecases) Respond(ctx context.Context, conversationID, participantID uuid.UUID, in RespondInput) (RespondOutput, error) {
	conv, err := u.loadOrCreate(ctx, conversationID, participantID)
	if err != nil {
		return RespondOutput{}, err
	}

	if u.deps.Locks != nil {
		release := u.deps.Locks.Lock(conv.ID)
		defer release()
		// Re-read under the lock; a concurrent turn may have advanced or
		// locked the conversation.
		conv, err = u.deps.Conversations.GetByID(ctx, nil, conv.ID)
		if err != nil {
			return RespondOutput{}, err
		}
	}
	return steps.Respond(ctx, u.stepDeps(), conv, in)
}

func (u Usecases) loadOrCreate(ctx context.Context, conversationID, participantID uuid.UUID) (*types.Conversation, error) {
	if conversationID != uuid.Nil {
		conv, err := u.deps.Conversations.GetByID(ctx, nil, conversationID)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, repos.ErrNotFound) {
			return nil, err
		}
	}
	return u.CreateConversation(ctx, CreateInput{ParticipantID: participantID})
}

// GetConversation returns the conversation with its message log.
func (u Usecases) GetConversation(ctx context.Context, id uuid.UUID) (*types.Conversation, []*types.Message, error) {
	conv, err := u.deps.Conversations.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, nil, apierr.NotFound(err)
		}
		return nil, nil, err
	}
	msgs, err := u.deps.Messages.ListByConversation(ctx, nil, id)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

// ListConversations returns all of a participant's sessions.
func (u Usecases) ListConversations(ctx context.Context, participantID uuid.UUID) ([]*types.Conversation, error) {
	if participantID == uuid.Nil {
		return nil, apierr.BadRequest(fmt.Errorf("participant id required"))
	}
	return u.deps.Conversations.ListByParticipant(ctx, nil, participantID)
}

// GetProfile recomputes the derived stage profile from persisted scores.
func (u Usecases) GetProfile(ctx context.Context, id uuid.UUID) (*types.StageProfile, error) {
	if _, err := u.deps.Conversations.GetByID(ctx, nil, id); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, apierr.NotFound(err)
		}
		return nil, err
	}
	return steps.BuildStageProfile(ctx, u.stepDeps(), id)
}

// ReindexCatalog refreshes the question-vector index after startup or a
// catalog hot reload.
func (u Usecases) ReindexCatalog(ctx context.Context) error {
	return steps.IndexCatalog(ctx, u.stepDeps())
}
