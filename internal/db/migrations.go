package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: match listings filter by either side and status.
	`CREATE INDEX IF NOT EXISTS idx_matches_lost_status ON matches(lost_item_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_found_status ON matches(found_item_id, status)`,
	// Migration 2: status history is always read per item, newest first.
	`CREATE INDEX IF NOT EXISTS idx_status_changes_item ON status_changes(item_id, changed_at)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
