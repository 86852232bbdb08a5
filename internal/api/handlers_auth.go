// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/skywatch-io/skywatch/internal/auth"
	"github.com/skywatch-io/skywatch/internal/logging"
)

// loginResponse is the success payload for POST /auth/login. The token
// is returned in the body as well as the cookie for non-browser clients.
type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// Login authenticates a user against the users table and issues a JWT
// in an HTTP-only cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid request body")
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	// Same failure path for unknown user and wrong password so the
	// response does not reveal which usernames exist.
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		logging.Warn().Str("username", req.Username).Msg("Login failed")
		rw.Unauthorized("Invalid username or password")
		return
	}

	token, err := h.jwtManager.GenerateToken(user.Username, user.Role)
	if err != nil {
		logging.Error().Err(err).Msg("Token generation failed")
		rw.InternalError("Failed to generate authentication token")
		return
	}

	expiresAt := time.Now().Add(h.jwtManager.SessionTimeout())
	h.setAuthCookie(w, r, token, expiresAt)

	logging.Info().Str("username", user.Username).Str("role", user.Role).Msg("Login succeeded")
	rw.Success(loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  user.Username,
		Role:      user.Role,
	})
}

// Logout clears the session cookie. The JWT itself stays valid until it
// expires; there is no server-side session state to revoke.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Security.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure(r),
		SameSite: http.SameSiteStrictMode,
	})

	NewResponseWriter(w, r).Success(map[string]interface{}{
		"logged_out": true,
	})
}

// AuthCheck reports the authenticated identity from the request context.
// Runs behind the authentication middleware, so claims are always set.
func (h *Handler) AuthCheck(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Not authenticated")
		return
	}

	rw.Success(map[string]interface{}{
		"authenticated": true,
		"username":      claims.Username,
		"role":          claims.Role,
		"expires_at":    claims.ExpiresAt.Time,
	})
}

func (h *Handler) setAuthCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Security.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) cookieSecure(r *http.Request) bool {
	return h.config.Security.CookieSecure || r.TLS != nil
}
