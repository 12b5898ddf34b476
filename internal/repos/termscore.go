package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/types"
)

type TermScoreRepo interface {
	// Upsert keeps exactly one current score per (conversation, dimension,
	// term), overwriting on conflict.
	Upsert(ctx context.Context, tx *gorm.DB, score *types.TermScore) (*types.TermScore, error)
	Get(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, dimension, term string) (*types.TermScore, error)
	ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.TermScore, error)
	ListByDimension(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, dimension string) ([]*types.TermScore, error)
}

type termScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTermScoreRepo(db *gorm.DB, baseLog *logger.Logger) TermScoreRepo {
	return &termScoreRepo{db: db, log: baseLog.With("repo", "TermScoreRepo")}
}

func (r *termScoreRepo) Upsert(ctx context.Context, tx *gorm.DB, score *types.TermScore) (*types.TermScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if score == nil || score.ConversationID == uuid.Nil {
		return nil, fmt.Errorf("term score with conversation id required")
	}
	if score.ID == uuid.Nil {
		score.ID = uuid.New()
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "conversation_id"}, {Name: "dimension"}, {Name: "term"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "rationale", "method", "confidence", "sample_count", "updated_at",
			}),
		}).
		Create(score).Error; err != nil {
		return nil, err
	}
	return score, nil
}

func (r *termScoreRepo) Get(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, dimension, term string) (*types.TermScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TermScore
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ? AND dimension = ? AND term = ?", conversationID, dimension, term).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *termScoreRepo) ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.TermScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TermScore
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("dimension ASC, term ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *termScoreRepo) ListByDimension(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, dimension string) ([]*types.TermScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TermScore
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ? AND dimension = ?", conversationID, dimension).
		Order("term ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
