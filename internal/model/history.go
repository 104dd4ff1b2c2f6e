package model

import "time"

// StatusChange is one entry of an item's status audit log.
type StatusChange struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Reason     string    `json:"reason,omitempty"`
	ChangedBy  *int64    `json:"changed_by,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}
