package model

import "time"

// Match is a scored pairing of one lost item with one found item.
// (LostItemID, FoundItemID) is unique.
type Match struct {
	ID          int64     `json:"id"`
	LostItemID  int64     `json:"lost_item_id"`
	FoundItemID int64     `json:"found_item_id"`
	Score       int       `json:"match_score"`
	Reason      string    `json:"reason,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	LostItem  *PublicItem `json:"lost_item,omitempty"`
	FoundItem *PublicItem `json:"found_item,omitempty"`
}

// Match statuses.
const (
	MatchStatusPending   = "pending"
	MatchStatusConfirmed = "confirmed"
	MatchStatusRejected  = "rejected"
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// ValidMatchStatus reports whether s is a known match status.
func ValidMatchStatus(s string) bool {
	return s == MatchStatusPending || s == MatchStatusConfirmed || s == MatchStatusRejected
}

// OtherItemID returns the id on the opposite side of the match from itemID.
func (m Match) OtherItemID(itemID int64) int64 {
	if m.LostItemID == itemID {
		return m.FoundItemID
	}
	return m.LostItemID
}
