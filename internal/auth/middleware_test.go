// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skywatch-io/skywatch/internal/config"
	"github.com/skywatch-io/skywatch/internal/logging"
	"github.com/skywatch-io/skywatch/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func newTestMiddleware(t *testing.T) *Middleware {
	t.Helper()
	cfg := &config.SecurityConfig{
		JWTSecret:         testSecret,
		SessionTimeout:    time.Hour,
		CookieName:        "skywatch_token",
		RateLimitReqs:     100,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: true,
	}
	jwtManager, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return NewMiddleware(jwtManager, cfg)
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAuthenticate_MissingToken(t *testing.T) {
	m := newTestMiddleware(t)
	next, called := okHandler()

	rec := httptest.NewRecorder()
	m.Authenticate(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/zones", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if *called {
		t.Error("handler must not run without a token")
	}
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	m := newTestMiddleware(t)
	token, err := m.jwtManager.GenerateToken("alice", models.RoleOperator)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var gotClaims *Claims
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/zones", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotClaims == nil || gotClaims.Username != "alice" {
		t.Errorf("expected claims for alice in context, got %+v", gotClaims)
	}
}

func TestAuthenticate_SessionCookie(t *testing.T) {
	m := newTestMiddleware(t)
	token, err := m.jwtManager.GenerateToken("alice", models.RoleOperator)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	next, called := okHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/zones", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: token})
	rec := httptest.NewRecorder()
	m.Authenticate(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 via cookie, got %d", rec.Code)
	}
	if !*called {
		t.Error("handler should have run")
	}
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	m := newTestMiddleware(t)
	next, _ := okHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/zones", nil)
	req.Header.Set("Authorization", "Token abc123")
	rec := httptest.NewRecorder()
	m.Authenticate(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for malformed header, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	m := newTestMiddleware(t)

	cases := []struct {
		name     string
		role     string
		required string
		want     int
	}{
		{"admin passes admin check", models.RoleAdmin, models.RoleAdmin, http.StatusOK},
		{"admin passes operator check", models.RoleAdmin, models.RoleOperator, http.StatusOK},
		{"operator passes operator check", models.RoleOperator, models.RoleOperator, http.StatusOK},
		{"operator fails admin check", models.RoleOperator, models.RoleAdmin, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := m.jwtManager.GenerateToken("user", tc.role)
			if err != nil {
				t.Fatalf("GenerateToken: %v", err)
			}

			next, _ := okHandler()
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/zones/1", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			m.RequireRole(tc.required)(next).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed within burst", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("expected rejection after burst exhausted")
	}

	// Other IPs have their own bucket.
	if !rl.Allow("10.0.0.2") {
		t.Error("expected separate allowance for different IP")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := &config.SecurityConfig{
		JWTSecret:       testSecret,
		SessionTimeout:  time.Hour,
		CookieName:      "skywatch_token",
		RateLimitReqs:   2,
		RateLimitWindow: time.Minute,
	}
	jwtManager, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	m := NewMiddleware(jwtManager, cfg)

	next, _ := okHandler()
	handler := m.RateLimit(next)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit, got %d", rec.Code)
	}
}
