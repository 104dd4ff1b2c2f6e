package matching

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

type statusUpdater interface {
	UpdateItemStatus(ctx context.Context, id int64, from, to, reason string, changedBy *int64) (bool, error)
}

// Lifecycle owns the active -> matched edge of the item state machine.
type Lifecycle struct {
	items statusUpdater
	log   zerolog.Logger
}

// NewLifecycle creates a Lifecycle.
func NewLifecycle(items statusUpdater, log zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		items: items,
		log:   log.With().Str("component", "lifecycle").Logger(),
	}
}

// MarkMatched moves an item from active to matched. The update is
// conditional on the item still being active, so an item closed or archived
// in the meantime keeps its status. It reports whether the item changed.
func (l *Lifecycle) MarkMatched(ctx context.Context, itemID int64, reason string, changedBy *int64) (bool, error) {
	changed, err := l.items.UpdateItemStatus(ctx, itemID, model.ItemStatusActive, model.ItemStatusMatched, reason, changedBy)
	if err != nil {
		return false, fmt.Errorf("marking item %d matched: %w", itemID, err)
	}
	if changed {
		l.log.Info().Int64("item_id", itemID).Msg("item marked matched")
	} else {
		l.log.Debug().Int64("item_id", itemID).Msg("item not active, status left unchanged")
	}
	return changed, nil
}
