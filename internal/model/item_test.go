package model

import (
	"errors"
	"testing"
)

func TestPublicHidesAnonymousDescription(t *testing.T) {
	item := Item{
		ID:           7,
		OwnerID:      3,
		Type:         ItemTypeAnonymous,
		Category:     "Keys",
		Description:  "blue keychain with a bottle opener",
		Location:     "Library",
		Date:         "2024-03-15",
		Status:       ItemStatusActive,
		ContactEmail: "owner@example.com",
	}

	p := item.Public()
	if p.Description != "" {
		t.Errorf("expected anonymous description to be withheld, got %q", p.Description)
	}
	if p.Category != "Keys" || p.ID != 7 {
		t.Errorf("unexpected public view: %+v", p)
	}

	item.Type = ItemTypeFound
	if got := item.Public().Description; got != item.Description {
		t.Errorf("expected description for found item, got %q", got)
	}
}

func TestOppositeType(t *testing.T) {
	tests := map[string]string{
		ItemTypeLost:      ItemTypeFound,
		ItemTypeFound:     ItemTypeLost,
		ItemTypeAnonymous: "",
		"":                "",
	}
	for in, want := range tests {
		if got := OppositeType(in); got != want {
			t.Errorf("OppositeType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParsedDate(t *testing.T) {
	if d := (Item{Date: "2024-03-16"}).ParsedDate(); d.Day() != 16 {
		t.Errorf("expected day 16, got %v", d)
	}
	if d := (Item{Date: "16/03/2024"}).ParsedDate(); !d.IsZero() {
		t.Errorf("expected zero time for bad date, got %v", d)
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := NewValidationError("item_id", "required")
	if !errors.Is(err, ErrValidation) {
		t.Error("expected ValidationError to match ErrValidation")
	}
	if err.Error() != "validation: item_id: required" {
		t.Errorf("unexpected message %q", err.Error())
	}

	multi := &ValidationError{Errors: []FieldError{{"a", "x"}, {"b", "y"}}}
	if multi.Error() != "validation: 2 errors (a, b)" {
		t.Errorf("unexpected message %q", multi.Error())
	}
}
