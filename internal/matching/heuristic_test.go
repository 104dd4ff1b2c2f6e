package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

var lostPhone = model.Item{
	ID: 1, Type: model.ItemTypeLost, Category: "Phone", Brand: "Apple", Color: "Black",
	Location: "Central Park", Date: "2024-03-15",
}

func TestHeuristicScorerPhoneAndWallet(t *testing.T) {
	phone := model.Item{
		ID: 2, Type: model.ItemTypeFound, Category: "Phone", Brand: "Apple", Color: "Black",
		Location: "Central Park", Date: "2024-03-16",
	}
	wallet := model.Item{
		ID: 3, Type: model.ItemTypeFound, Category: "Wallet", Brand: "Gucci", Color: "Brown",
		Location: "Central Park", Date: "2024-03-16",
	}

	scores, err := NewHeuristicScorer().Score(context.Background(), lostPhone, []model.Item{phone, wallet})
	require.NoError(t, err)
	require.Len(t, scores, 2)

	// Category 30, brand/color 20, location 10, one day apart 9.67; no
	// description on either side.
	assert.Equal(t, int64(2), scores[0].ItemID)
	assert.InDelta(t, 69.67, scores[0].Value, 0.01)
	assert.Contains(t, scores[0].Reason, "category")

	assert.Equal(t, int64(3), scores[1].ItemID)
	assert.Less(t, scores[1].Value, 50.0)
}

func TestHeuristicScorerMissingFieldsAreNeutral(t *testing.T) {
	full := model.Item{Category: "Phone", Brand: "Apple", Location: "Central Park", Date: "2024-03-15"}
	bare := model.Item{Category: "Phone", Location: "Central Park", Date: "2024-03-15"}

	// Brand present on one side only scores exactly like brand absent on
	// both: no contribution, no penalty.
	withBrand, _ := scorePair(full, bare)
	without, _ := scorePair(bare, bare)
	assert.InDelta(t, 50, without, 0.001)
	assert.InDelta(t, without, withBrand, 0.001)

	withDescription := bare
	withDescription.Description = "cracked screen"
	score, _ := scorePair(withDescription, bare)
	assert.InDelta(t, without, score, 0.001)
}

func TestHeuristicScorerCategoryAloneStaysBelowThreshold(t *testing.T) {
	lost := model.Item{
		Type: model.ItemTypeLost, Category: "Phone", Brand: "Apple", Color: "Black",
		Description: "cracked screen, blue case", Location: "Central Park", Date: "2024-03-15",
	}
	found := model.Item{
		Type: model.ItemTypeFound, Category: "Phone", Location: "Berlin Hauptbahnhof", Date: "2023-01-01",
	}

	score, reason := scorePair(lost, found)
	assert.InDelta(t, WeightCategory, score, 0.001)
	assert.Less(t, score, float64(DefaultThreshold))
	assert.Equal(t, "matches on category", reason)

	// Every weight at full similarity adds up to exactly 100.
	score, _ = scorePair(lost, lost)
	assert.InDelta(t, 100, score, 0.001)
}

func TestHeuristicScorerDateProximity(t *testing.T) {
	a := model.Item{Category: "Keys", Location: "Library", Date: "2024-03-01"}

	tests := []struct {
		date string
		want float64
	}{
		{"2024-03-01", 1},
		{"2024-03-16", 0.5},
		{"2024-03-31", 0},
		{"2024-06-01", 0},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			sim, ok := dateProximity(a, model.Item{Date: tt.date})
			require.True(t, ok)
			assert.InDelta(t, tt.want, sim, 0.001)
		})
	}

	_, ok := dateProximity(a, model.Item{Date: "last week"})
	assert.False(t, ok)
}

func TestTextSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		a, b   string
		want   float64
		wantOK bool
	}{
		{"exact ignores case and spacing", "Central  Park", "central park", 1, true},
		{"containment", "Central Park", "Central Park North Gate", 0.7, true},
		{"token overlap", "black leather wallet", "brown leather wallet", 0.5, true},
		{"no overlap", "phone", "umbrella", 0, true},
		{"empty side", "phone", " ", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := textSimilarity(tt.a, tt.b, 0.7)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestHeuristicScorerHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHeuristicScorer().Score(ctx, lostPhone, []model.Item{{ID: 9, Category: "Phone"}})
	assert.ErrorIs(t, err, context.Canceled)
}
