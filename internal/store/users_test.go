package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h-tadlaoui/nova-app/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database, ctx := newStoreDB(t)

	user, err := CreateUser(ctx, database, "  Alice@Example.com ", "+386 40 123 456", "hash123", model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "+386 40 123 456", user.Phone)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Nil(t, user.DeletedAt)

	got, err := GetUserByEmail(ctx, database, "ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "hash123", got.PasswordHash)

	missing, err := GetUserByEmail(ctx, database, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database, ctx := newStoreDB(t)

	_, err := CreateUser(ctx, database, "alice@example.com", "", "hash", model.RoleUser)
	require.NoError(t, err)

	_, err = CreateUser(ctx, database, "Alice@example.com", "", "hash", model.RoleUser)
	assert.Error(t, err)
}

func TestListUsersAndCountAdmins(t *testing.T) {
	database, ctx := newStoreDB(t)

	_, err := CreateUser(ctx, database, "admin@example.com", "", "hash", model.RoleAdmin)
	require.NoError(t, err)
	_, err = CreateUser(ctx, database, "user@example.com", "", "hash", model.RoleUser)
	require.NoError(t, err)

	users, err := ListUsers(ctx, database)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	admins, err := CountAdmins(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 1, admins)
}

func TestUpdateUserPassword(t *testing.T) {
	database, ctx := newStoreDB(t)
	user := newTestUser(t, database, "alice@example.com")

	require.NoError(t, UpdateUserPassword(ctx, database, user.ID, "newhash"))

	got, err := GetUser(ctx, database, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.PasswordHash)
}
