package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing-0123456789"

func TestGenerateAndParseAccessToken(t *testing.T) {
	op := &Operator{Username: "booth", Role: RoleOperator}

	token, expires, err := GenerateAccessToken(op, testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateAccessToken() returned empty token")
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "booth" {
		t.Errorf("Subject = %q, want booth", claims.Subject)
	}
	if claims.Role != RoleOperator {
		t.Errorf("Role = %q, want operator", claims.Role)
	}
	if claims.ID == "" {
		t.Error("JTI should not be empty")
	}
	if !claims.ExpiresAt.Time.Equal(expires.Truncate(time.Second)) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt.Time, expires)
	}
}

func TestGenerateAccessToken_DefaultTTL(t *testing.T) {
	op := &Operator{Username: "booth", Role: RoleViewer}

	_, expires, err := GenerateAccessToken(op, testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	diff := time.Until(expires) - defaultTokenTTL
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("default TTL off by %v", diff)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	valid, _, err := GenerateAccessToken(&Operator{Username: "booth", Role: RoleOperator}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	sign := func(method jwt.SigningMethod, key any, claims Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("signing: %v", err)
		}
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"empty", "", testSecret},
		{"garbage", "not-a-valid-jwt", testSecret},
		{"malformed segments", "abc.def", testSecret},
		{"wrong secret", valid, "another-secret-key-for-jwt-signing-000"},
		{"expired", sign(jwt.SigningMethodHS256, []byte(testSecret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "booth", ExpiresAt: past},
			Role:             RoleOperator,
		}), testSecret},
		{"wrong algorithm", sign(jwt.SigningMethodHS512, []byte(testSecret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "booth", ExpiresAt: future},
			Role:             RoleOperator,
		}), testSecret},
		{"missing subject", sign(jwt.SigningMethodHS256, []byte(testSecret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
			Role:             RoleOperator,
		}), testSecret},
		{"unknown role", sign(jwt.SigningMethodHS256, []byte(testSecret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "booth", ExpiresAt: future},
			Role:             "admin",
		}), testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token, tt.secret); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
