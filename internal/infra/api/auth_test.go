//go:build !integration

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthManager_Require(t *testing.T) {
	auth := NewAuthManager(testSecret, false, time.Minute)
	protected := auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	mint := func(t *testing.T) string {
		t.Helper()
		tok, _, err := auth.Mint(httptest.NewRecorder(), "admin")
		if err != nil || tok == "" {
			t.Fatalf("failed to mint test token: %v", err)
		}
		return tok
	}

	t.Run("no credentials -> 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
		if rec := do(t, protected, req); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("wrong scheme -> 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
		req.Header.Set("Authorization", "Basic "+mint(t))
		if rec := do(t, protected, req); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("bearer but invalid jwt -> 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
		req.Header.Set("Authorization", "Bearer invalid.jwt.token")
		if rec := do(t, protected, req); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("token signed with another secret -> 401", func(t *testing.T) {
		other := NewAuthManager("another-secret-of-sufficient-size", false, time.Minute)
		tok, _, _ := other.Mint(httptest.NewRecorder(), "admin")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		if rec := do(t, protected, req); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("expired token -> 401", func(t *testing.T) {
		old := NewAuthManager(testSecret, false, time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		tok, _, _ := old.Mint(httptest.NewRecorder(), "admin")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		if rec := do(t, protected, req); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("non-admin role -> 401", func(t *testing.T) {
		claims := AdminClaims{
			Role: "viewer",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
		tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		if rec := do(t, protected, req); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("valid bearer jwt -> 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
		req.Header.Set("Authorization", "Bearer "+mint(t))
		if rec := do(t, protected, req); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("valid session cookie -> 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: mint(t)})
		if rec := do(t, protected, req); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestIssueToken(t *testing.T) {
	t.Run("should mint a token for the admin key", func(t *testing.T) {
		// Arrange
		srv, _ := newStack(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
		req.Header.Set("X-Admin-Key", "test-admin-key")

		// Act
		rec := do(t, srv.Handler(), req)

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body tokenResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Token == "" {
			t.Fatalf("expected a token, got %v / %+v", err, body)
		}
		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == sessionCookie {
				cookie = c
			}
		}
		if cookie == nil || !cookie.HttpOnly || cookie.Value != body.Token {
			t.Errorf("expected matching HttpOnly session cookie, got %+v", cookie)
		}

		follow := httptest.NewRequest(http.MethodGet, "/api/v1/payments/stats", nil)
		follow.Header.Set("Authorization", "Bearer "+body.Token)
		if rec := do(t, srv.Handler(), follow); rec.Code != http.StatusOK {
			t.Errorf("minted token should be accepted, got %d", rec.Code)
		}
	})

	t.Run("should reject a wrong key", func(t *testing.T) {
		srv, _ := newStack(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
		req.Header.Set("X-Admin-Key", "guess")
		if rec := do(t, srv.Handler(), req); rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("should refuse when no key is configured", func(t *testing.T) {
		srv := NewServer(&mockLedger{}, NewAuthManager(testSecret, false, time.Minute), nil, Options{}, newTestLogger())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
		req.Header.Set("X-Admin-Key", "")
		if rec := do(t, srv.Handler(), req); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})
}
