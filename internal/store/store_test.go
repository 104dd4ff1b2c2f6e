package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/h-tadlaoui/nova-app/internal/db"
	"github.com/h-tadlaoui/nova-app/internal/model"
)

func newTestUser(t *testing.T, database *sql.DB, email string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, email, "", "hash", model.RoleUser)
	require.NoError(t, err)
	return u
}

func newTestItem(t *testing.T, database *sql.DB, ownerID int64, itemType, category string) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, model.Item{
		OwnerID:     ownerID,
		Type:        itemType,
		Category:    category,
		Description: fmt.Sprintf("a %s %s", itemType, category),
		Location:    "Central Station",
		Date:        "2024-01-15",
	})
	require.NoError(t, err)
	return item
}

func newStoreDB(t *testing.T) (*sql.DB, context.Context) {
	t.Helper()
	return db.NewTestDB(t), context.Background()
}
