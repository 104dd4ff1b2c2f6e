package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h-tadlaoui/nova-app/internal/db"
	"github.com/h-tadlaoui/nova-app/internal/matching"
	"github.com/h-tadlaoui/nova-app/internal/model"
	"github.com/h-tadlaoui/nova-app/internal/store"
)

type failingTrigger struct {
	err   error
	calls int
}

func (f *failingTrigger) TriggerMatching(context.Context, matching.TriggerInput) (*matching.Result, error) {
	f.calls++
	return nil, f.err
}

func seed(t *testing.T) *store.Store {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice, err := store.CreateUser(ctx, database, "alice@example.com", "", "hash", model.RoleUser)
	require.NoError(t, err)
	bob, err := store.CreateUser(ctx, database, "bob@example.com", "", "hash", model.RoleUser)
	require.NoError(t, err)

	for _, item := range []model.Item{
		{OwnerID: alice.ID, Type: model.ItemTypeLost, Category: "Phone", Brand: "Apple", Color: "Black", Location: "Central Park", Date: "2024-03-15"},
		{OwnerID: bob.ID, Type: model.ItemTypeFound, Category: "Phone", Brand: "Apple", Color: "Black", Location: "Central Park", Date: "2024-03-16"},
		{OwnerID: bob.ID, Type: model.ItemTypeAnonymous, Category: "Wallet", Location: "Station", Date: "2024-03-16"},
	} {
		_, err := store.CreateItem(ctx, database, item)
		require.NoError(t, err)
	}
	return store.New(database)
}

func TestRematch(t *testing.T) {
	st := seed(t)
	engine := matching.NewEngine(st, st, matching.NewHeuristicScorer(),
		matching.NewLifecycle(st, zerolog.Nop()), nil, matching.Config{}, zerolog.Nop())

	sum, err := rematch(context.Background(), st, engine, "", 0)
	require.NoError(t, err)

	// Lost reports run first. Once the lost phone is matched it leaves the
	// pool, so the found phone's run finds nothing. Anonymous reports are
	// never rematched.
	assert.Equal(t, 2, sum.items)
	assert.Equal(t, 2, sum.succeeded)
	assert.Equal(t, 0, sum.failed)
	assert.Equal(t, 1, sum.matches)
	assert.Equal(t, 1, sum.created)
}

func TestRematchTypeFilter(t *testing.T) {
	st := seed(t)
	tr := &failingTrigger{err: model.ErrNotFound}

	sum, err := rematch(context.Background(), st, tr, model.ItemTypeFound, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.calls)
	assert.Equal(t, 1, sum.failed)
}

func TestRematchStopsWhenQuotaExhausted(t *testing.T) {
	st := seed(t)
	tr := &failingTrigger{err: matching.ErrQuotaExhausted}

	_, err := rematch(context.Background(), st, tr, "", 0)
	require.ErrorIs(t, err, matching.ErrQuotaExhausted)
	assert.Equal(t, 1, tr.calls)
}
