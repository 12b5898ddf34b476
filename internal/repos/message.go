package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/types"
)

type MessageRepo interface {
	// Append assigns the next ordinal within the conversation and inserts.
	Append(ctx context.Context, tx *gorm.DB, message *types.Message) (*types.Message, error)
	ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error)
	LastN(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, n int) ([]*types.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (r *messageRepo) Append(ctx context.Context, tx *gorm.DB, message *types.Message) (*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if message == nil || message.ConversationID == uuid.Nil {
		return nil, fmt.Errorf("message with conversation id required")
	}
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}

	var maxOrdinal int
	row := transaction.WithContext(ctx).
		Model(&types.Message{}).
		Where("conversation_id = ?", message.ConversationID).
		Select("COALESCE(MAX(ordinal), 0)")
	if err := row.Scan(&maxOrdinal).Error; err != nil {
		return nil, err
	}
	message.Ordinal = maxOrdinal + 1

	if err := transaction.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (r *messageRepo) ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Message
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("ordinal ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *messageRepo) LastN(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, n int) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if n <= 0 {
		return []*types.Message{}, nil
	}

	var results []*types.Message
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("ordinal DESC").
		Limit(n).
		Find(&results).Error; err != nil {
		return nil, err
	}
	// Restore chronological order.
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}
