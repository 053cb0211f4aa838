package auth

import (
	"errors"
	"testing"
)

func testOperators(t *testing.T) []Operator {
	t.Helper()
	hash, err := HashPassword("spin-the-decks")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	return []Operator{
		{Username: "booth", PasswordHash: hash},
		{Username: "screen", PasswordHash: hash, Role: RoleViewer},
	}
}

func TestNewOperatorStore(t *testing.T) {
	ops := testOperators(t)
	store, err := NewOperatorStore(ops)
	if err != nil {
		t.Fatalf("NewOperatorStore() error = %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}

	hash := ops[0].PasswordHash
	tests := []struct {
		name string
		ops  []Operator
	}{
		{"bad username", []Operator{{Username: "no spaces", PasswordHash: hash}}},
		{"bad role", []Operator{{Username: "booth", PasswordHash: hash, Role: "admin"}}},
		{"no hash", []Operator{{Username: "booth"}}},
		{"duplicate", []Operator{{Username: "booth", PasswordHash: hash}, {Username: "booth", PasswordHash: hash}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewOperatorStore(tt.ops); !errors.Is(err, ErrInvalidOperator) {
				t.Errorf("NewOperatorStore() error = %v, want ErrInvalidOperator", err)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	store, err := NewOperatorStore(testOperators(t))
	if err != nil {
		t.Fatalf("NewOperatorStore() error = %v", err)
	}

	op, err := store.Authenticate("booth", "spin-the-decks")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if op.Username != "booth" || op.Role != RoleOperator {
		t.Errorf("operator = %+v, want booth/operator", op)
	}

	op, err = store.Authenticate("screen", "spin-the-decks")
	if err != nil || op.Role != RoleViewer {
		t.Errorf("Authenticate(screen) = %+v, %v; want viewer", op, err)
	}

	failures := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "booth", "nope"},
		{"unknown user", "ghost", "spin-the-decks"},
		{"empty", "", ""},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Authenticate(tt.username, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}
