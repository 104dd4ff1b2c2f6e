package model

import (
	"strings"
	"time"
)

// Item is a lost, found, or anonymous report.
type Item struct {
	ID           int64     `json:"id"`
	OwnerID      int64     `json:"owner_id"`
	Type         string    `json:"type"`
	Category     string    `json:"category"`
	Description  string    `json:"description,omitempty"`
	Brand        string    `json:"brand,omitempty"`
	Color        string    `json:"color,omitempty"`
	Location     string    `json:"location"`
	Date         string    `json:"date"`
	Time         string    `json:"time,omitempty"`
	Status       string    `json:"status"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	HasImage     bool      `json:"has_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicItem is the view of an item shown to users other than its owner.
// Contact details and ownership are never included.
type PublicItem struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Color       string    `json:"color,omitempty"`
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	Time        string    `json:"time,omitempty"`
	Status      string    `json:"status"`
	HasImage    bool      `json:"has_image"`
	CreatedAt   time.Time `json:"created_at"`
}

// Item types.
const (
	ItemTypeLost      = "lost"
	ItemTypeFound     = "found"
	ItemTypeAnonymous = "anonymous"
)

// Item date and time layouts.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Public returns the public view of the item. Anonymous reports never expose
// their description.
func (i Item) Public() PublicItem {
	p := PublicItem{
		ID:          i.ID,
		Type:        i.Type,
		Category:    i.Category,
		Description: i.Description,
		Brand:       i.Brand,
		Color:       i.Color,
		Location:    i.Location,
		Date:        i.Date,
		Time:        i.Time,
		Status:      i.Status,
		HasImage:    i.HasImage,
		CreatedAt:   i.CreatedAt,
	}
	if i.Type == ItemTypeAnonymous {
		p.Description = ""
	}
	return p
}

// ParsedDate returns the report date, or the zero time if it does not parse.
func (i Item) ParsedDate() time.Time {
	d, err := time.Parse(DateLayout, strings.TrimSpace(i.Date))
	if err != nil {
		return time.Time{}
	}
	return d
}

// ValidItemType reports whether t is a known item type.
func ValidItemType(t string) bool {
	switch t {
	case ItemTypeLost, ItemTypeFound, ItemTypeAnonymous:
		return true
	}
	return false
}

// OppositeType returns the type a lost or found item is matched against.
// It returns "" for anonymous or unknown types.
func OppositeType(t string) string {
	switch t {
	case ItemTypeLost:
		return ItemTypeFound
	case ItemTypeFound:
		return ItemTypeLost
	}
	return ""
}
