package apiapp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	authsvc "github.com/andreysobol/amora/internal/services/auth"
)

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	manager := authsvc.NewJWTManager("test-secret", time.Minute)
	mw := AuthMiddleware(manager, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/like", nil)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called without a token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	manager := authsvc.NewJWTManager("test-secret", time.Minute)
	mw := AuthMiddleware(manager, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/like", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called with an invalid token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	manager := authsvc.NewJWTManager("test-secret", time.Minute)
	mw := AuthMiddleware(manager, zap.NewNop())

	token, _, err := manager.GenerateAccessToken(314)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/like", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok || identity.UserID != 314 {
			t.Fatalf("identity missing or wrong: ok=%v identity=%+v", ok, identity)
		}
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestExtractBearerToken(t *testing.T) {
	if _, ok := extractBearerToken(""); ok {
		t.Fatalf("empty header should not parse")
	}
	if _, ok := extractBearerToken("Basic abc"); ok {
		t.Fatalf("non-bearer scheme should not parse")
	}
	token, ok := extractBearerToken("bearer some-token")
	if !ok || token != "some-token" {
		t.Fatalf("case-insensitive scheme: ok=%v token=%q", ok, token)
	}
}
