package model

import (
	"fmt"
	"time"
)

// User is a registered account. Users own item reports.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Password length bounds. bcrypt ignores bytes past MaxPasswordLength.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
// Unknown roles never pass.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin: 2,
		RoleUser:  1,
	}
	have, ok := levels[role]
	if !ok {
		return false
	}
	need, ok := levels[minimum]
	if !ok {
		return false
	}
	return have >= need
}

// ValidatePassword checks password requirements. field names the request
// field in the returned validation error.
func ValidatePassword(field, password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return NewValidationError(field, fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	case len(password) > MaxPasswordLength:
		return NewValidationError(field, fmt.Sprintf("must be at most %d bytes", MaxPasswordLength))
	}
	return nil
}
