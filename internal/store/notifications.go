package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

// CreateNotification stores a notification for n.UserID.
func CreateNotification(ctx context.Context, db *sql.DB, n model.Notification) (*model.Notification, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, related_item_id, related_match_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Type, n.Title, n.Message, n.RelatedItemID, n.RelatedMatchID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting notification id: %w", err)
	}

	out := &model.Notification{}
	err = db.QueryRowContext(ctx,
		`SELECT id, user_id, type, title, message, read, related_item_id, related_match_id, created_at
		 FROM notifications WHERE id = ?`, id,
	).Scan(&out.ID, &out.UserID, &out.Type, &out.Title, &out.Message, &out.Read,
		&out.RelatedItemID, &out.RelatedMatchID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading notification: %w", err)
	}
	return out, nil
}

// ListNotifications returns a user's notifications, newest first.
func ListNotifications(ctx context.Context, db *sql.DB, userID int64, unreadOnly bool) ([]model.Notification, error) {
	b := psql.Select("id", "user_id", "type", "title", "message", "read",
		"related_item_id", "related_match_id", "created_at").
		From("notifications").
		Where("user_id = ?", userID).
		OrderBy("created_at DESC", "id DESC")
	if unreadOnly {
		b = b.Where("read = 0")
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building notifications query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read,
			&n.RelatedItemID, &n.RelatedMatchID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead marks one of the user's notifications as read. It
// reports false when the notification does not exist or belongs to someone
// else.
func MarkNotificationRead(ctx context.Context, db *sql.DB, id, userID int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("marking notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking updated rows: %w", err)
	}
	return n > 0, nil
}

// MarkAllNotificationsRead marks every unread notification of the user as
// read and returns how many changed.
func MarkAllNotificationsRead(ctx context.Context, db *sql.DB, userID int64) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return result.RowsAffected()
}
