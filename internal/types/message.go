package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleSystem MessageRole = "system"
)

type Message struct {
	ID             uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID   `gorm:"type:uuid;not null;index:idx_conversation_ordinal,unique" json:"conversation_id"`
	Role           MessageRole `gorm:"column:role;not null" json:"role"`
	Text           string      `gorm:"column:text;not null" json:"text"`

	// Ordinal is strictly increasing within a conversation.
	Ordinal int `gorm:"column:ordinal;not null;index:idx_conversation_ordinal,unique" json:"ordinal"`

	// QuestionID links a system message to the catalog question it asked, or
	// a user message to the question it answers.
	QuestionID string `gorm:"column:question_id" json:"question_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Message) TableName() string { return "message" }
