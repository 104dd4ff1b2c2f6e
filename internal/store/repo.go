package store

import (
	"context"
	"database/sql"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

// Store binds the package-level queries to one database so services can
// depend on small interfaces instead of *sql.DB.
type Store struct {
	db *sql.DB
}

// New creates a Store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	return GetItem(ctx, s.db, id)
}

func (s *Store) QueryItems(ctx context.Context, f ItemFilter) ([]model.Item, error) {
	return QueryItems(ctx, s.db, f)
}

func (s *Store) UpdateItemStatus(ctx context.Context, id int64, from, to, reason string, changedBy *int64) (bool, error) {
	return UpdateItemStatus(ctx, s.db, id, from, to, reason, changedBy)
}

func (s *Store) UpsertMatches(ctx context.Context, records []model.Match) ([]UpsertedMatch, error) {
	return UpsertMatches(ctx, s.db, records)
}

func (s *Store) CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error) {
	return CreateNotification(ctx, s.db, n)
}
