package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

// itemColumns is the column list scanned by scanItem.
var itemColumns = []string{
	"id", "owner_id", "type", "category", "description", "brand", "color",
	"location", "date", "time", "status", "contact_email", "contact_phone",
	"image IS NOT NULL", "created_at", "updated_at",
}

// ItemFilter narrows QueryItems. Zero values are ignored.
type ItemFilter struct {
	Type           string
	Status         string
	Category       string
	OwnerID        int64
	ExcludeOwnerID int64
	Limit          uint64
}

func scanItem(s scanner) (*model.Item, error) {
	var item model.Item
	var description, brand, color, itemTime, email, phone sql.NullString
	err := s.Scan(
		&item.ID, &item.OwnerID, &item.Type, &item.Category, &description, &brand, &color,
		&item.Location, &item.Date, &itemTime, &item.Status, &email, &phone,
		&item.HasImage, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Brand = brand.String
	item.Color = color.String
	item.Time = itemTime.String
	item.ContactEmail = email.String
	item.ContactPhone = phone.String
	return &item, nil
}

// CreateItem inserts a new report owned by item.OwnerID. New reports are
// always active.
func CreateItem(ctx context.Context, db *sql.DB, item model.Item) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (owner_id, type, category, description, brand, color,
		                    location, date, time, status, contact_email, contact_phone)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.OwnerID, item.Type, item.Category, nullString(item.Description),
		nullString(item.Brand), nullString(item.Color), item.Location, item.Date,
		nullString(item.Time), model.ItemStatusActive,
		nullString(item.ContactEmail), nullString(item.ContactPhone),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	return getItem(ctx, db, id)
}

func getItem(ctx context.Context, q dbtx, id int64) (*model.Item, error) {
	query, args, err := psql.Select(itemColumns...).From("items").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building item query: %w", err)
	}

	item, err := scanItem(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// QueryItems returns items matching the filter, newest first.
func QueryItems(ctx context.Context, db *sql.DB, f ItemFilter) ([]model.Item, error) {
	b := psql.Select(itemColumns...).From("items").OrderBy("created_at DESC", "id DESC")
	if f.Type != "" {
		b = b.Where(sq.Eq{"type": f.Type})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	if f.Category != "" {
		b = b.Where("category = ? COLLATE NOCASE", f.Category)
	}
	if f.OwnerID != 0 {
		b = b.Where(sq.Eq{"owner_id": f.OwnerID})
	}
	if f.ExcludeOwnerID != 0 {
		b = b.Where(sq.NotEq{"owner_id": f.ExcludeOwnerID})
	}
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building items query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItemStatus moves an item from one status to another and records
// the change in the status history. The update only applies while the item
// is still in the from status, so a concurrent change wins and nothing is
// written. It reports whether the item transitioned.
func UpdateItemStatus(ctx context.Context, db *sql.DB, id int64, from, to, reason string, changedBy *int64) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("updating item status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking updated rows: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := insertStatusChange(ctx, tx, id, from, to, reason, changedBy); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing status change: %w", err)
	}
	return true, nil
}

// SetItemImage stores an item's photo and its thumbnail.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image, thumbnail []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, thumbnail = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		image, thumbnail, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's photo (or its thumbnail) and MIME type.
// Data is nil when the item has no photo.
func GetItemImage(ctx context.Context, db *sql.DB, id int64, thumbnail bool) ([]byte, string, error) {
	column := "image"
	if thumbnail {
		column = "COALESCE(thumbnail, image)"
	}

	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT `+column+`, image_mime FROM items WHERE id = ?`, id,
	).Scan(&data, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return data, mime.String, nil
}
