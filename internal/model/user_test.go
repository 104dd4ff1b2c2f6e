package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleUser, true},
		// Unknown roles fail closed.
		{"owner", RoleUser, false},
		{RoleAdmin, "owner", false},
		{"", "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, RoleAtLeast(tt.role, tt.minimum), "RoleAtLeast(%q, %q)", tt.role, tt.minimum)
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"1234567", true},
		{"12345678", false},
		{strings.Repeat("x", MaxPasswordLength), false},
		{strings.Repeat("x", MaxPasswordLength+1), true},
	}

	for _, tt := range tests {
		err := ValidatePassword("new_password", tt.password)
		if !tt.wantErr {
			assert.NoError(t, err, "password of length %d", len(tt.password))
			continue
		}
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "password of length %d", len(tt.password))
		assert.Equal(t, "new_password", verr.Errors[0].Field)
		assert.ErrorIs(t, err, ErrValidation)
	}
}
