package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConversationMode string

const (
	ModeFreeDialogue      ConversationMode = "free_dialogue"
	ModeDimensionAnalysis ConversationMode = "dimension_analysis"
	ModeTransitioning     ConversationMode = "transitioning"
)

type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationCompleted ConversationStatus = "completed"
	ConversationArchived  ConversationStatus = "archived"
)

// statusRank orders conversation statuses; transitions only move forward.
var statusRank = map[ConversationStatus]int{
	ConversationActive:    0,
	ConversationCompleted: 1,
	ConversationArchived:  2,
}

func StatusCanTransition(from, to ConversationStatus) bool {
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

type Conversation struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ParticipantID uuid.UUID          `gorm:"type:uuid;not null;index" json:"participant_id"`
	Mode          ConversationMode   `gorm:"column:mode;not null;default:free_dialogue" json:"mode"`
	Status        ConversationStatus `gorm:"column:status;not null;default:active;index" json:"status"`
	TurnCount     int                `gorm:"column:turn_count;not null;default:0" json:"turn_count"`

	// TargetDimension pins the interview to one dimension from creation;
	// such conversations never auto-route.
	TargetDimension string `gorm:"column:target_dimension" json:"target_dimension,omitempty"`

	Assessment datatypes.JSON `gorm:"type:jsonb;column:assessment" json:"assessment"`

	// Summary is the cached session summary served after the conversation
	// locks.
	Summary     string     `gorm:"column:summary" json:"summary,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Conversation) TableName() string { return "conversation" }

func (c *Conversation) Locked() bool {
	return c != nil && c.Status != ConversationActive
}
