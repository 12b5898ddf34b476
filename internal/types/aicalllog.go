package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AICallLog audits every external generation/embedding call made on behalf of
// a conversation. Prompts and raw responses are not stored; answers contain
// self-reported health details.
type AICallLog struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID *uuid.UUID `gorm:"type:uuid;index" json:"conversation_id,omitempty"`
	CallType       string     `gorm:"column:call_type;not null" json:"call_type"`
	Model          string     `gorm:"column:model" json:"model"`
	Success        bool       `gorm:"column:success;not null" json:"success"`
	Error          string     `gorm:"column:error" json:"error"`
	LatencyMS      int64      `gorm:"column:latency_ms;not null;default:0" json:"latency_ms"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AICallLog) TableName() string { return "ai_call_log" }
