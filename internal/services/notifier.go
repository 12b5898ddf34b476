package services

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/carebridge-backend/internal/platform/logger"
	"github.com/yungbote/carebridge-backend/internal/types"
)

// ConversationNotifier publishes conversation lifecycle events for
// downstream consumers (companion UI, care-team dashboards). Entirely
// best-effort: a publish failure is logged and never fails the turn.
type ConversationNotifier interface {
	ConversationCreated(conversationID, participantID uuid.UUID)
	QuestionAsked(conversationID uuid.UUID, questionID, dimension, term string)
	TermScored(conversationID uuid.UUID, score *types.TermScore)
	ConversationCompleted(conversationID uuid.UUID, stage types.Stage)
}

type conversationEvent struct {
	Event          string    `json:"event"`
	ConversationID uuid.UUID `json:"conversation_id"`
	At             time.Time `json:"at"`
	Data           any       `json:"data,omitempty"`
}

type conversationNotifier struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewConversationNotifier builds a redis-backed notifier. A nil redis client
// yields a notifier that drops every event, so callers never nil-check.
func NewConversationNotifier(log *logger.Logger, rdb *goredis.Client) ConversationNotifier {
	ch := strings.TrimSpace(os.Getenv("REDIS_EVENT_CHANNEL"))
	if ch == "" {
		ch = "carebridge.conversation"
	}
	return &conversationNotifier{
		log:     log.With("service", "ConversationNotifier"),
		rdb:     rdb,
		channel: ch,
	}
}

func (n *conversationNotifier) publish(event string, conversationID uuid.UUID, data any) {
	if n == nil || n.rdb == nil || conversationID == uuid.Nil {
		return
	}
	raw, err := json.Marshal(conversationEvent{
		Event:          event,
		ConversationID: conversationID,
		At:             time.Now().UTC(),
		Data:           data,
	})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		n.log.Warn("Event publish failed", "event", event, "error", err)
	}
}

func (n *conversationNotifier) ConversationCreated(conversationID, participantID uuid.UUID) {
	n.publish("conversation.created", conversationID, map[string]any{
		"participant_id": participantID,
	})
}

func (n *conversationNotifier) QuestionAsked(conversationID uuid.UUID, questionID, dimension, term string) {
	n.publish("conversation.question_asked", conversationID, map[string]any{
		"question_id": questionID,
		"dimension":   dimension,
		"term":        term,
	})
}

func (n *conversationNotifier) TermScored(conversationID uuid.UUID, score *types.TermScore) {
	if score == nil {
		return
	}
	n.publish("conversation.term_scored", conversationID, map[string]any{
		"dimension":    score.Dimension,
		"term":         score.Term,
		"score":        score.Score,
		"method":       score.Method,
		"sample_count": score.SampleCount,
	})
}

func (n *conversationNotifier) ConversationCompleted(conversationID uuid.UUID, stage types.Stage) {
	n.publish("conversation.completed", conversationID, map[string]any{
		"overall_stage": stage,
	})
}
