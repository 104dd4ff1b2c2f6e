package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevokeAndCheckToken(t *testing.T) {
	database, ctx := newStoreDB(t)

	revoked, err := IsTokenRevoked(ctx, database, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = IsTokenRevoked(ctx, database, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = IsTokenRevoked(ctx, database, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestPurgeRevokedTokens(t *testing.T) {
	database, ctx := newStoreDB(t)
	now := time.Now()

	require.NoError(t, RevokeToken(ctx, database, "expired", now.Add(-time.Hour)))
	require.NoError(t, RevokeToken(ctx, database, "live", now.Add(time.Hour)))

	n, err := PurgeRevokedTokens(ctx, database, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	revoked, err := IsTokenRevoked(ctx, database, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
}
