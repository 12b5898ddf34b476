package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScoreMethod tags which scoring strategy produced a result.
type ScoreMethod string

const (
	MethodOptionMatch ScoreMethod = "option_match"
	MethodRuleBased   ScoreMethod = "rule_based"
	MethodAIFallback  ScoreMethod = "ai_fallback"
)

const (
	ScoreMin = 0.0
	ScoreMax = 7.0
)

// TermScore is the single current score for one (conversation, dimension,
// term). It is overwritten as the term accumulates answers; Score is the
// running average over SampleCount accepted answers.
type TermScore struct {
	ID             uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID   `gorm:"type:uuid;not null;index:idx_conversation_term,unique" json:"conversation_id"`
	Dimension      string      `gorm:"column:dimension;not null;index:idx_conversation_term,unique" json:"dimension"`
	Term           string      `gorm:"column:term;not null;index:idx_conversation_term,unique" json:"term"`
	Score          float64     `gorm:"column:score;not null" json:"score"`
	Rationale      string      `gorm:"column:rationale" json:"rationale"`
	Method         ScoreMethod `gorm:"column:method;not null" json:"method"`
	Confidence     float64     `gorm:"column:confidence;not null" json:"confidence"`
	SampleCount    int         `gorm:"column:sample_count;not null;default:0" json:"sample_count"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TermScore) TableName() string { return "term_score" }

// ClampScore bounds a raw score to the 0-7 rubric scale.
func ClampScore(v float64) float64 {
	if v < ScoreMin {
		return ScoreMin
	}
	if v > ScoreMax {
		return ScoreMax
	}
	return v
}

// ClampConfidence bounds confidence to [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
