package model

import "time"

// Notification is a message addressed to one user.
type Notification struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	RelatedItemID  *int64    `json:"related_item_id,omitempty"`
	RelatedMatchID *int64    `json:"related_match_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Notification types.
const (
	NotificationMatchFound     = "match_found"
	NotificationMatchConfirmed = "match_confirmed"
	NotificationMatchRejected  = "match_rejected"
	NotificationItemRecovered  = "item_recovered"
)
