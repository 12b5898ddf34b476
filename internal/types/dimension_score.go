package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Stage labels, ordered from least to most impacted.
type Stage string

const (
	StageMinimal     Stage = "minimal_impact"
	StageMild        Stage = "mild_impact"
	StageModerate    Stage = "moderate_impact"
	StageSignificant Stage = "significant_impact"
	StageSevere      Stage = "severe_impact"
)

// AggregationMethodVersion identifies the aggregation/imputation algorithm
// that produced a DimensionScore.
const AggregationMethodVersion = "agg_v1"

type DimensionScore struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_conversation_dimension,unique" json:"conversation_id"`
	Dimension      string    `gorm:"column:dimension;not null;index:idx_conversation_dimension,unique" json:"dimension"`
	Score          float64   `gorm:"column:score;not null" json:"score"`

	// CoverageRatio = terms with real scores / terms in the dimension.
	CoverageRatio float64 `gorm:"column:coverage_ratio;not null" json:"coverage_ratio"`
	Stage         Stage   `gorm:"column:stage;not null" json:"stage"`
	MethodVersion string  `gorm:"column:method_version;not null" json:"method_version"`

	// ImputedTerms lists terms whose contribution was inferred rather than
	// scored; consumers must never conflate them with real scores.
	ImputedTerms datatypes.JSON `gorm:"type:jsonb;column:imputed_terms" json:"imputed_terms"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DimensionScore) TableName() string { return "dimension_score" }
