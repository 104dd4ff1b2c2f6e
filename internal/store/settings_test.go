package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJWTSecretStable(t *testing.T) {
	database, ctx := newStoreDB(t)

	first, err := GetJWTSecret(ctx, database)
	require.NoError(t, err)
	assert.Len(t, first, 64)

	second, err := GetJWTSecret(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetOrCreateSettingKeepsExisting(t *testing.T) {
	database, ctx := newStoreDB(t)

	v, err := GetOrCreateSetting(ctx, database, "greeting", func() (string, error) { return "hello", nil })
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = GetOrCreateSetting(ctx, database, "greeting", func() (string, error) { return "bye", nil })
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}
