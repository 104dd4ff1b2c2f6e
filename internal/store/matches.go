package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

// UpsertedMatch is a persisted match and whether this call created it.
type UpsertedMatch struct {
	Match    model.Match
	Inserted bool
}

var matchColumns = []string{
	"m.id", "m.lost_item_id", "m.found_item_id", "m.match_score", "m.reason",
	"m.status", "m.created_at", "m.updated_at",
}

func scanMatch(s scanner) (*model.Match, error) {
	var m model.Match
	var reason sql.NullString
	err := s.Scan(&m.ID, &m.LostItemID, &m.FoundItemID, &m.Score, &reason,
		&m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Reason = reason.String
	return &m, nil
}

// UpsertMatches inserts pending matches inside a single transaction. A pair
// that already exists is left untouched and reported with Inserted false, so
// re-running matching never duplicates or rescores a pair. Any failure rolls
// back every row.
func UpsertMatches(ctx context.Context, db *sql.DB, records []model.Match) ([]UpsertedMatch, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	selectQuery, _, err := psql.Select(matchColumns...).From("matches m").
		Where("m.lost_item_id = ? AND m.found_item_id = ?").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building match query: %w", err)
	}

	out := make([]UpsertedMatch, 0, len(records))
	for _, r := range records {
		status := r.Status
		if status == "" {
			status = model.MatchStatusPending
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO matches (lost_item_id, found_item_id, match_score, reason, status)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (lost_item_id, found_item_id) DO NOTHING`,
			r.LostItemID, r.FoundItemID, r.Score, nullString(r.Reason), status,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting match %d/%d: %w", r.LostItemID, r.FoundItemID, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("checking inserted rows: %w", err)
		}

		m, err := scanMatch(tx.QueryRowContext(ctx, selectQuery, r.LostItemID, r.FoundItemID))
		if err != nil {
			return nil, fmt.Errorf("reading match %d/%d: %w", r.LostItemID, r.FoundItemID, err)
		}

		out = append(out, UpsertedMatch{Match: *m, Inserted: n > 0})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing matches: %w", err)
	}
	return out, nil
}

// GetMatch returns a match by ID, or nil if it does not exist.
func GetMatch(ctx context.Context, db *sql.DB, id int64) (*model.Match, error) {
	query, args, err := psql.Select(matchColumns...).From("matches m").Where(sq.Eq{"m.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building match query: %w", err)
	}

	m, err := scanMatch(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting match: %w", err)
	}
	return m, nil
}

// MatchFilter narrows ListMatches. Zero values are ignored.
type MatchFilter struct {
	// UserID limits results to matches where the user owns either item.
	UserID int64
	ItemID int64
	Status string
}

// publicItemColumns lists the columns scanned by publicItemScan for the
// items table aliased as alias.
func publicItemColumns(alias string) []string {
	cols := make([]string, 0, 12)
	for _, c := range []string{"id", "type", "category", "description", "brand", "color",
		"location", "date", "time", "status"} {
		cols = append(cols, alias+"."+c)
	}
	return append(cols, alias+".image IS NOT NULL", alias+".created_at")
}

type publicItemScan struct {
	item                                model.PublicItem
	description, brand, color, itemTime sql.NullString
}

func (p *publicItemScan) dest() []any {
	return []any{
		&p.item.ID, &p.item.Type, &p.item.Category, &p.description, &p.brand, &p.color,
		&p.item.Location, &p.item.Date, &p.itemTime, &p.item.Status, &p.item.HasImage,
		&p.item.CreatedAt,
	}
}

func (p *publicItemScan) result() *model.PublicItem {
	p.item.Description = p.description.String
	p.item.Brand = p.brand.String
	p.item.Color = p.color.String
	p.item.Time = p.itemTime.String
	if p.item.Type == model.ItemTypeAnonymous {
		p.item.Description = ""
	}
	item := p.item
	return &item
}

// ListMatches returns matches with both items' public views, best score first.
func ListMatches(ctx context.Context, db *sql.DB, f MatchFilter) ([]model.Match, error) {
	cols := append([]string{}, matchColumns...)
	cols = append(cols, publicItemColumns("li")...)
	cols = append(cols, publicItemColumns("fi")...)

	b := psql.Select(cols...).
		From("matches m").
		Join("items li ON li.id = m.lost_item_id").
		Join("items fi ON fi.id = m.found_item_id").
		OrderBy("m.match_score DESC", "m.id DESC")
	if f.UserID != 0 {
		b = b.Where(sq.Or{sq.Eq{"li.owner_id": f.UserID}, sq.Eq{"fi.owner_id": f.UserID}})
	}
	if f.ItemID != 0 {
		b = b.Where(sq.Or{sq.Eq{"m.lost_item_id": f.ItemID}, sq.Eq{"m.found_item_id": f.ItemID}})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"m.status": f.Status})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building matches query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		var m model.Match
		var reason sql.NullString
		var lost, found publicItemScan

		dest := []any{&m.ID, &m.LostItemID, &m.FoundItemID, &m.Score, &reason,
			&m.Status, &m.CreatedAt, &m.UpdatedAt}
		dest = append(dest, lost.dest()...)
		dest = append(dest, found.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}

		m.Reason = reason.String
		m.LostItem = lost.result()
		m.FoundItem = found.result()
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// UpdateMatchStatus records the review of a pending match. A match that was
// already reviewed is left untouched; it reports whether the status changed.
func UpdateMatchStatus(ctx context.Context, db *sql.DB, id int64, status string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE matches SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		status, id, model.MatchStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("updating match status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking updated rows: %w", err)
	}
	return n > 0, nil
}
