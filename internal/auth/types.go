package auth

import (
	"errors"
	"regexp"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// Role represents an authorisation tier.
type Role string

const (
	// RoleViewer may read state and history.
	RoleViewer Role = "viewer"

	// RoleOperator may additionally ingest updates and reset state.
	RoleOperator Role = "operator"
)

// ParseRole maps a configured role name to a Role. An empty name is an operator.
func ParseRole(name string) (Role, bool) {
	switch Role(name) {
	case "", RoleOperator:
		return RoleOperator, true
	case RoleViewer:
		return RoleViewer, true
	}
	return "", false
}

// Operator is a login declared in configuration.
type Operator struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // never serialised
	Role         Role   `json:"role"`
}

// Domain errors for the auth package.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrInvalidOperator    = errors.New("invalid operator")
	ErrForbidden          = errors.New("insufficient permissions")
)
