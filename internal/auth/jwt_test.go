// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/skywatch-io/skywatch/internal/config"
	"github.com/skywatch-io/skywatch/internal/models"
)

const testSecret = "test-secret-at-least-32-characters-long"

func newTestJWTManager(t *testing.T, timeout time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      testSecret,
		SessionTimeout: timeout,
	})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	_, err := NewJWTManager(&config.SecurityConfig{JWTSecret: ""})
	if err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestJWT_GenerateAndValidate(t *testing.T) {
	m := newTestJWTManager(t, time.Hour)

	token, err := m.GenerateToken("alice", models.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %q", claims.Username)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("expected admin role, got %q", claims.Role)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > time.Hour {
		t.Error("expected expiry within the session timeout")
	}
}

func TestJWT_RejectsExpiredToken(t *testing.T) {
	m := newTestJWTManager(t, -time.Minute)

	token, err := m.GenerateToken("alice", models.RoleOperator)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expected validation failure for expired token")
	}
}

func TestJWT_RejectsTamperedToken(t *testing.T) {
	m := newTestJWTManager(t, time.Hour)

	token, err := m.GenerateToken("alice", models.RoleOperator)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := m.ValidateToken(tampered); err == nil {
		t.Error("expected validation failure for tampered token")
	}
}

func TestJWT_RejectsWrongSecret(t *testing.T) {
	m := newTestJWTManager(t, time.Hour)
	token, err := m.GenerateToken("alice", models.RoleOperator)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "a-different-secret-also-32-chars-min!",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation failure with a different secret")
	}
}

func TestJWT_RejectsGarbage(t *testing.T) {
	m := newTestJWTManager(t, time.Hour)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.ValidateToken(tok); err == nil {
			t.Errorf("expected failure for %q", tok)
		}
	}
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal plaintext")
	}

	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("expected mismatched password to fail")
	}
	if CheckPassword("not-a-bcrypt-hash", "anything") {
		t.Error("expected malformed hash to fail")
	}
}
