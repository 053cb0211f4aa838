package auth

import (
	"fmt"
	"sync"
)

// OperatorStore holds the operators allowed to log in.
// It is built once from configuration and is safe for concurrent reads.
type OperatorStore struct {
	operators map[string]Operator
}

// dummyHash is verified against when a username is unknown so that
// failed logins take the same time whether or not the user exists.
var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// NewOperatorStore validates and indexes operators.
//
// Parameters:
//   - operators: Declared logins; usernames must be unique
//
// Returns:
//   - *OperatorStore: Store ready for Authenticate
//   - error: ErrInvalidOperator for a bad username, role or duplicate
func NewOperatorStore(operators []Operator) (*OperatorStore, error) {
	s := &OperatorStore{operators: make(map[string]Operator, len(operators))}
	for i, op := range operators {
		if !IsValidUsername(op.Username) {
			return nil, fmt.Errorf("%w: operators[%d] username %q", ErrInvalidOperator, i, op.Username)
		}
		role, ok := ParseRole(string(op.Role))
		if !ok {
			return nil, fmt.Errorf("%w: operators[%d] role %q", ErrInvalidOperator, i, op.Role)
		}
		if op.PasswordHash == "" {
			return nil, fmt.Errorf("%w: operators[%d] has no password hash", ErrInvalidOperator, i)
		}
		if _, dup := s.operators[op.Username]; dup {
			return nil, fmt.Errorf("%w: duplicate username %q", ErrInvalidOperator, op.Username)
		}
		op.Role = role
		s.operators[op.Username] = op
	}
	return s, nil
}

// Len returns the number of configured operators.
func (s *OperatorStore) Len() int {
	return len(s.operators)
}

// Authenticate checks a username and password.
// Every failure returns ErrInvalidCredentials so callers cannot tell an
// unknown user from a wrong password.
func (s *OperatorStore) Authenticate(username, password string) (*Operator, error) {
	op, ok := s.operators[username]
	if !ok {
		_, _ = VerifyPassword(password, getDummyHash())
		return nil, ErrInvalidCredentials
	}

	match, err := VerifyPassword(password, op.PasswordHash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}
	return &op, nil
}

func getDummyHash() string {
	dummyHashOnce.Do(func() {
		h, err := HashPassword("deckstate-dummy-password")
		if err == nil {
			dummyHash = h
		}
	})
	return dummyHash
}
