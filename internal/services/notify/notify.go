// Package notify hands engine events to a downstream notifier. Dispatch is
// fire-and-forget: delivery guarantees belong to the consumer, the engine
// only promises to emit each obligation once.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreysobol/amora/internal/domain/enums"
)

type EventType string

const (
	EventMatchCreated   EventType = "match_created"
	EventQuotaExhausted EventType = "quota_exhausted"
)

type Event struct {
	ID           string           `json:"id"`
	Type         EventType        `json:"type"`
	UserID       int64            `json:"user_id"`
	TargetUserID int64            `json:"target_user_id,omitempty"`
	MatchID      int64            `json:"match_id,omitempty"`
	Action       enums.ActionType `json:"action,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

func NewMatchCreated(matchID, userID, targetUserID int64, at time.Time) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         EventMatchCreated,
		UserID:       userID,
		TargetUserID: targetUserID,
		MatchID:      matchID,
		CreatedAt:    at.UTC(),
	}
}

func NewQuotaExhausted(userID int64, action enums.ActionType, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      EventQuotaExhausted,
		UserID:    userID,
		Action:    action,
		CreatedAt: at.UTC(),
	}
}

// LogDispatcher writes events to the structured log. Stands in for a real
// notifier in deployments that consume events from logs.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(_ context.Context, event Event) {
	if d.log == nil {
		return
	}
	d.log.Info("engine_event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("user_id", event.UserID),
		zap.Int64("target_user_id", event.TargetUserID),
		zap.Int64("match_id", event.MatchID),
		zap.String("action", string(event.Action)),
		zap.Time("created_at", event.CreatedAt),
	)
}
