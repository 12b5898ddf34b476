package steps

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/observability"
	"github.com/yungbote/carebridge-backend/internal/types"
)

// logAICall records a generation/embedding call in the audit table.
// Best-effort: an audit write failure never fails the calling step.
func logAICall(ctx context.Context, deps Deps, convID uuid.UUID, callType string, start time.Time, callErr error) {
	status := "ok"
	if callErr != nil {
		status = "error"
	}
	observability.Current().ObserveAICall(callType, status, time.Since(start))

	if deps.AICalls == nil {
		return
	}
	entry := &types.AICallLog{
		CallType:  callType,
		Success:   callErr == nil,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if convID != uuid.Nil {
		id := convID
		entry.ConversationID = &id
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	if err := deps.AICalls.Create(ctx, nil, entry); err != nil {
		deps.Log.Warn("AI call audit write failed", "call_type", callType, "error", err)
	}
}
