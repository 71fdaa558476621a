package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Minute)

	token, expiresAt, err := manager.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expiry is not in the future: %v", expiresAt)
	}

	claims, err := manager.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("user id: got %d want 42", claims.UserID)
	}
}

func TestJWTManagerRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-a", time.Minute)
	verifier := NewJWTManager("secret-b", time.Minute)

	token, _, err := issuer.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := verifier.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestJWTManagerRejectsExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Minute)
	manager.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := manager.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	manager.now = time.Now
	if _, err := manager.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestJWTManagerRejectsGarbage(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Minute)

	for _, raw := range []string{"", "  ", "not-a-jwt"} {
		if _, err := manager.ParseAccessToken(raw); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for %q, got %v", raw, err)
		}
	}
}
