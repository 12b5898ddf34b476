package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/types"
)

type DimensionScoreRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, score *types.DimensionScore) (*types.DimensionScore, error)
	ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.DimensionScore, error)
}

type dimensionScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDimensionScoreRepo(db *gorm.DB, baseLog *logger.Logger) DimensionScoreRepo {
	return &dimensionScoreRepo{db: db, log: baseLog.With("repo", "DimensionScoreRepo")}
}

func (r *dimensionScoreRepo) Upsert(ctx context.Context, tx *gorm.DB, score *types.DimensionScore) (*types.DimensionScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if score == nil || score.ConversationID == uuid.Nil {
		return nil, fmt.Errorf("dimension score with conversation id required")
	}
	if score.ID == uuid.Nil {
		score.ID = uuid.New()
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "conversation_id"}, {Name: "dimension"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "coverage_ratio", "stage", "method_version", "imputed_terms", "updated_at",
			}),
		}).
		Create(score).Error; err != nil {
		return nil, err
	}
	return score, nil
}

func (r *dimensionScoreRepo) ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.DimensionScore, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DimensionScore
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("dimension ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
