// Package matching pairs lost reports with found reports. A Scorer rates
// candidates against a source item, and the Engine filters, persists, and
// reports the pairs that clear the threshold.
package matching

import (
	"context"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

// Score is a scorer's rating of one candidate. Value is on a 0-100 scale but
// is not trusted to be in range.
type Score struct {
	ItemID int64
	Value  float64
	Reason string
}

// Scorer rates candidates against a source item. It may omit candidates it
// considers irrelevant and may return ids that are not in candidates; the
// engine drops those.
type Scorer interface {
	Score(ctx context.Context, source model.Item, candidates []model.Item) ([]Score, error)
}

// Field weights, out of a fixed total of 100. A field missing on either
// side contributes nothing.
const (
	WeightCategory    = 30.0
	WeightDescription = 30.0
	WeightBrandColor  = 20.0
	WeightLocation    = 10.0
	WeightDate        = 10.0

	totalWeight = WeightCategory + WeightDescription + WeightBrandColor + WeightLocation + WeightDate
)

// DateWindowDays is the distance in days at which date proximity reaches zero.
const DateWindowDays = 30
