package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/h-tadlaoui/nova-app/internal/model"
	"github.com/h-tadlaoui/nova-app/internal/store"
)

// DefaultThreshold is the lowest score that is persisted as a match.
const DefaultThreshold = 50

// Config tunes an Engine.
type Config struct {
	// Threshold is raised to DefaultThreshold if set lower.
	Threshold   int
	BatchSize   int
	Concurrency int
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Threshold < DefaultThreshold {
		c.Threshold = DefaultThreshold
	}
	if c.Threshold > model.MaxScore {
		c.Threshold = model.MaxScore
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

type itemRepo interface {
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	QueryItems(ctx context.Context, f store.ItemFilter) ([]model.Item, error)
}

type matchRepo interface {
	UpsertMatches(ctx context.Context, records []model.Match) ([]store.UpsertedMatch, error)
}

// CreatedMatch is a match inserted by a run together with its candidate.
type CreatedMatch struct {
	Match     model.Match
	Candidate model.Item
}

// Notifier is told about matches a run inserted.
type Notifier interface {
	MatchesCreated(ctx context.Context, source model.Item, created []CreatedMatch) error
}

// TriggerInput identifies the item to match. RequesterID 0 is the system,
// which may match any item; other requesters must own the item unless
// RequesterRole is admin.
type TriggerInput struct {
	ItemID        int64
	ItemType      string
	RequesterID   int64
	RequesterRole string
}

// Validate checks the input before any store access.
func (in TriggerInput) Validate() error {
	var errs []model.FieldError
	if in.ItemID <= 0 {
		errs = append(errs, model.FieldError{Field: "item_id", Message: "must be a positive id"})
	}
	if in.ItemType != model.ItemTypeLost && in.ItemType != model.ItemTypeFound {
		errs = append(errs, model.FieldError{Field: "item_type", Message: "must be lost or found"})
	}
	if len(errs) > 0 {
		return &model.ValidationError{Errors: errs}
	}
	return nil
}

func (in TriggerInput) canAccess(item *model.Item) bool {
	return in.RequesterID == 0 || item.OwnerID == in.RequesterID || in.RequesterRole == model.RoleAdmin
}

// MatchResult is a persisted match as returned to the caller.
type MatchResult struct {
	ID     int64            `json:"id"`
	Score  int              `json:"score"`
	Reason string           `json:"reason,omitempty"`
	Status string           `json:"status"`
	New    bool             `json:"new"`
	Item   model.PublicItem `json:"item"`
}

// Result is the outcome of one matching run.
type Result struct {
	Matches    []MatchResult `json:"matches"`
	TotalFound int           `json:"totalFound"`
}

func emptyResult() *Result {
	return &Result{Matches: []MatchResult{}}
}

// Engine runs matching for one source item at a time.
type Engine struct {
	items     itemRepo
	matches   matchRepo
	scorer    Scorer
	lifecycle *Lifecycle
	notifier  Notifier
	cfg       Config
	log       zerolog.Logger
}

// NewEngine creates an Engine. notifier may be nil.
func NewEngine(items itemRepo, matches matchRepo, scorer Scorer, lifecycle *Lifecycle, notifier Notifier, cfg Config, log zerolog.Logger) *Engine {
	return &Engine{
		items:     items,
		matches:   matches,
		scorer:    scorer,
		lifecycle: lifecycle,
		notifier:  notifier,
		cfg:       cfg.withDefaults(),
		log:       log.With().Str("component", "matching").Logger(),
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// TriggerMatching scores the source item against every active item of the
// opposite type reported by someone else, persists pairs that clear the
// threshold, and marks the source matched when a pair was stored. A scoring
// error aborts the run before anything is written.
func (e *Engine) TriggerMatching(ctx context.Context, in TriggerInput) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	source, err := e.items.GetItem(ctx, in.ItemID)
	if err != nil {
		return nil, fmt.Errorf("loading source item: %w", err)
	}
	if source == nil || !in.canAccess(source) {
		return nil, fmt.Errorf("item %d: %w", in.ItemID, model.ErrNotFound)
	}
	if source.Type == model.ItemTypeAnonymous {
		return nil, model.NewValidationError("item_id", "anonymous reports are not matched")
	}
	if source.Type != in.ItemType {
		return nil, model.NewValidationError("item_type", fmt.Sprintf("item is a %s report", source.Type))
	}

	log := e.log.With().Int64("item_id", source.ID).Str("item_type", source.Type).Logger()

	pool, err := e.items.QueryItems(ctx, store.ItemFilter{
		Type:           model.OppositeType(source.Type),
		Status:         model.ItemStatusActive,
		ExcludeOwnerID: source.OwnerID,
	})
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}
	if len(pool) == 0 {
		log.Info().Msg("no candidates")
		return emptyResult(), nil
	}

	scores, err := e.scoreAll(ctx, *source, pool)
	if err != nil {
		log.Warn().Err(err).Int("candidates", len(pool)).Msg("scoring aborted")
		return nil, err
	}

	records, byID := e.selectMatches(*source, pool, scores)
	log.Info().
		Int("candidates", len(pool)).
		Int("scores", len(scores)).
		Int("above_threshold", len(records)).
		Msg("candidates scored")
	if len(records) == 0 {
		return emptyResult(), nil
	}

	persisted, err := e.matches.UpsertMatches(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("persisting matches: %w", err)
	}

	var changedBy *int64
	if in.RequesterID != 0 {
		changedBy = &in.RequesterID
	}
	if len(persisted) > 0 {
		reason := fmt.Sprintf("%d potential match(es) found", len(persisted))
		if _, err := e.lifecycle.MarkMatched(ctx, source.ID, reason, changedBy); err != nil {
			return nil, err
		}
	}

	result := &Result{Matches: make([]MatchResult, 0, len(persisted))}
	var created []CreatedMatch
	for _, p := range persisted {
		candidate := byID[p.Match.OtherItemID(source.ID)]
		result.Matches = append(result.Matches, MatchResult{
			ID:     p.Match.ID,
			Score:  p.Match.Score,
			Reason: p.Match.Reason,
			Status: p.Match.Status,
			New:    p.Inserted,
			Item:   candidate.Public(),
		})
		if p.Inserted {
			created = append(created, CreatedMatch{Match: p.Match, Candidate: candidate})
		}
	}
	sort.SliceStable(result.Matches, func(i, j int) bool {
		if result.Matches[i].Score != result.Matches[j].Score {
			return result.Matches[i].Score > result.Matches[j].Score
		}
		return result.Matches[i].ID < result.Matches[j].ID
	})
	result.TotalFound = len(result.Matches)

	log.Info().Int("persisted", len(persisted)).Int("new", len(created)).Msg("matching complete")

	if len(created) > 0 && e.notifier != nil {
		if err := e.notifier.MatchesCreated(ctx, *source, created); err != nil {
			log.Error().Err(err).Msg("notifying match owners")
		}
	}

	return result, nil
}

// scoreAll scores the pool in batches, concurrently. The first batch error
// cancels the rest.
func (e *Engine) scoreAll(ctx context.Context, source model.Item, pool []model.Item) ([]Score, error) {
	var batches [][]model.Item
	for start := 0; start < len(pool); start += e.cfg.BatchSize {
		end := min(start+e.cfg.BatchSize, len(pool))
		batches = append(batches, pool[start:end])
	}

	results := make([][]Score, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			scores, err := e.scorer.Score(gctx, source, batch)
			if err != nil {
				return fmt.Errorf("scoring batch %d/%d: %w", i+1, len(batches), err)
			}
			results[i] = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Score
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// selectMatches turns raw scores into pending match records. Scores for ids
// outside the pool are dropped, duplicates keep their highest value, and
// anything under the threshold is discarded before clamping and rounding.
func (e *Engine) selectMatches(source model.Item, pool []model.Item, scores []Score) ([]model.Match, map[int64]model.Item) {
	byID := make(map[int64]model.Item, len(pool))
	for _, c := range pool {
		byID[c.ID] = c
	}

	best := make(map[int64]Score)
	for _, s := range scores {
		if _, ok := byID[s.ItemID]; !ok || math.IsNaN(s.Value) {
			continue
		}
		if cur, ok := best[s.ItemID]; ok && cur.Value >= s.Value {
			continue
		}
		best[s.ItemID] = s
	}

	records := make([]model.Match, 0, len(best))
	for id, s := range best {
		if s.Value < float64(e.cfg.Threshold) {
			continue
		}
		m := model.Match{
			Score:  clampScore(s.Value),
			Reason: s.Reason,
			Status: model.MatchStatusPending,
		}
		if source.Type == model.ItemTypeLost {
			m.LostItemID, m.FoundItemID = source.ID, id
		} else {
			m.LostItemID, m.FoundItemID = id, source.ID
		}
		records = append(records, m)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		if records[i].LostItemID != records[j].LostItemID {
			return records[i].LostItemID < records[j].LostItemID
		}
		return records[i].FoundItemID < records[j].FoundItemID
	})
	return records, byID
}

func clampScore(v float64) int {
	return int(math.Round(math.Max(model.MinScore, math.Min(model.MaxScore, v))))
}
