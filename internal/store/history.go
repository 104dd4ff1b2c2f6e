package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

func insertStatusChange(ctx context.Context, tx *sql.Tx, itemID int64, from, to, reason string, changedBy *int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO status_changes (item_id, from_status, to_status, reason, changed_by)
		 VALUES (?, ?, ?, ?, ?)`,
		itemID, from, to, nullString(reason), changedBy,
	)
	if err != nil {
		return fmt.Errorf("recording status change: %w", err)
	}
	return nil
}

// GetItemHistory returns the status changes of an item, newest first.
func GetItemHistory(ctx context.Context, db *sql.DB, itemID int64) ([]model.StatusChange, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, from_status, to_status, reason, changed_by, changed_at
		 FROM status_changes
		 WHERE item_id = ?
		 ORDER BY changed_at DESC, id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item history: %w", err)
	}
	defer rows.Close()

	var history []model.StatusChange
	for rows.Next() {
		var c model.StatusChange
		var reason sql.NullString
		var changedBy sql.NullInt64
		if err := rows.Scan(&c.ID, &c.ItemID, &c.FromStatus, &c.ToStatus, &reason, &changedBy, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scanning status change: %w", err)
		}
		c.Reason = reason.String
		if changedBy.Valid {
			by := changedBy.Int64
			c.ChangedBy = &by
		}
		history = append(history, c)
	}
	return history, rows.Err()
}
