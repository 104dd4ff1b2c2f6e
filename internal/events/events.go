// Package events publishes domain events to a message broker.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Routing keys.
const (
	RouteMatchCreated   = "match.created"
	RouteMatchConfirmed = "match.confirmed"
	RouteMatchRejected  = "match.rejected"
)

// Publisher sends events to consumers outside the service.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// MatchEvent describes a change to a match.
type MatchEvent struct {
	EventID     string    `json:"event_id"`
	MatchID     int64     `json:"match_id"`
	LostItemID  int64     `json:"lost_item_id"`
	FoundItemID int64     `json:"found_item_id"`
	Score       int       `json:"match_score"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewMatchEvent stamps a match event with a fresh id and the current time.
func NewMatchEvent(matchID, lostItemID, foundItemID int64, score int, status string) MatchEvent {
	return MatchEvent{
		EventID:     uuid.NewString(),
		MatchID:     matchID,
		LostItemID:  lostItemID,
		FoundItemID: foundItemID,
		Score:       score,
		Status:      status,
		OccurredAt:  time.Now().UTC(),
	}
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                               { return nil }
