package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/types"
)

var ErrNotFound = errors.New("record not found")

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) (*types.Conversation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error)
	Save(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) error
	ListByParticipant(ctx context.Context, tx *gorm.DB, participantID uuid.UUID) ([]*types.Conversation, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) (*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation required")
	}
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

func (r *conversationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Conversation
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *conversationRepo) Save(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if conversation == nil || conversation.ID == uuid.Nil {
		return fmt.Errorf("conversation with id required")
	}
	return transaction.WithContext(ctx).Save(conversation).Error
}

func (r *conversationRepo) ListByParticipant(ctx context.Context, tx *gorm.DB, participantID uuid.UUID) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Conversation
	if err := transaction.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
