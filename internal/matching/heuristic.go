package matching

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

// HeuristicScorer scores candidates by weighted field similarity. It is
// deterministic and makes no external calls.
type HeuristicScorer struct{}

// NewHeuristicScorer returns a HeuristicScorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// Score implements Scorer. Every candidate gets a score.
func (h *HeuristicScorer) Score(ctx context.Context, source model.Item, candidates []model.Item) ([]Score, error) {
	out := make([]Score, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		value, reason := scorePair(source, c)
		out = append(out, Score{ItemID: c.ID, Value: value, Reason: reason})
	}
	return out, nil
}

type component struct {
	name   string
	weight float64
	sim    float64
}

// scorePair returns the 0-100 similarity of a and b and a short explanation.
// The weights always add up to 100: a field missing on either side earns
// nothing, so no field can carry more than its own weight.
func scorePair(a, b model.Item) (float64, string) {
	var parts []component

	if sim, ok := textSimilarity(a.Category, b.Category, 0.7); ok {
		parts = append(parts, component{"category", WeightCategory, sim})
	}
	if sim, ok := textSimilarity(a.Description, b.Description, 0.7); ok {
		parts = append(parts, component{"description", WeightDescription, sim})
	}
	if sim, ok := brandColorSimilarity(a, b); ok {
		parts = append(parts, component{"brand/color", WeightBrandColor, sim})
	}
	if sim, ok := textSimilarity(a.Location, b.Location, 0.75); ok {
		parts = append(parts, component{"location", WeightLocation, sim})
	}
	if sim, ok := dateProximity(a, b); ok {
		parts = append(parts, component{"date", WeightDate, sim})
	}

	if len(parts) == 0 {
		return 0, "no comparable details"
	}
	var earned float64
	for _, p := range parts {
		earned += p.weight * p.sim
	}
	return 100 * earned / totalWeight, explain(parts, a, b)
}

func explain(parts []component, a, b model.Item) string {
	var strong, partial []string
	for _, p := range parts {
		label := p.name
		if p.name == "date" {
			label = fmt.Sprintf("date (%d days apart)", daysApart(a, b))
		}
		switch {
		case p.sim >= 0.99:
			strong = append(strong, label)
		case p.sim >= 0.4:
			partial = append(partial, label)
		}
	}

	var sb strings.Builder
	if len(strong) > 0 {
		sb.WriteString("matches on " + strings.Join(strong, ", "))
	}
	if len(partial) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString("similar " + strings.Join(partial, ", "))
	}
	if sb.Len() == 0 {
		return "few details in common"
	}
	return sb.String()
}

// textSimilarity compares two free-text fields. Exact matches score 1, one
// containing the other scores contained, otherwise token overlap. ok is
// false when either side is empty.
func textSimilarity(a, b string, contained float64) (float64, bool) {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return 0, false
	}
	if a == b {
		return 1, true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return contained, true
	}
	return jaccard(tokens(a), tokens(b)), true
}

// brandColorSimilarity averages brand and color, using whichever are present
// on both sides.
func brandColorSimilarity(a, b model.Item) (float64, bool) {
	var sum float64
	var n int
	if sim, ok := textSimilarity(a.Brand, b.Brand, 0.7); ok {
		sum += sim
		n++
	}
	if sim, ok := textSimilarity(a.Color, b.Color, 0.7); ok {
		sum += sim
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func dateProximity(a, b model.Item) (float64, bool) {
	da, db := a.ParsedDate(), b.ParsedDate()
	if da.IsZero() || db.IsZero() {
		return 0, false
	}
	days := math.Abs(da.Sub(db).Hours()) / 24
	return math.Max(0, 1-days/DateWindowDays), true
}

func daysApart(a, b model.Item) int {
	da, db := a.ParsedDate(), b.ParsedDate()
	if da.IsZero() || db.IsZero() {
		return 0
	}
	return int(math.Round(math.Abs(da.Sub(db).Hours()) / 24))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func tokens(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(t) > 1 {
			set[t] = struct{}{}
		}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var inter int
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}
