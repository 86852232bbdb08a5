// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skywatch-io/skywatch/internal/auth"
	"github.com/skywatch-io/skywatch/internal/config"
	"github.com/skywatch-io/skywatch/internal/database"
	"github.com/skywatch-io/skywatch/internal/logging"
	"github.com/skywatch-io/skywatch/internal/tracker"
	ws "github.com/skywatch-io/skywatch/internal/websocket"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, websocket upgrader
//   - handlers_auth.go: login, logout, session check
//   - handlers_drones.go: hostile drone reports, position queries, uploads
//   - handlers_zones.go: restricted zone CRUD
//   - handlers_health.go: health and readiness probes
type Handler struct {
	db         *database.DB
	tracker    *tracker.Tracker
	config     *config.Config
	jwtManager *auth.JWTManager
	wsHub      *ws.Hub
	startTime  time.Time
}

// NewHandler creates a new API handler with all required dependencies.
func NewHandler(db *database.DB, trk *tracker.Tracker, cfg *config.Config, jwtManager *auth.JWTManager, wsHub *ws.Hub) *Handler {
	return &Handler{
		db:         db,
		tracker:    trk,
		config:     cfg,
		jwtManager: jwtManager,
		wsHub:      wsHub,
		startTime:  time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Browsers always send Origin on websocket upgrades. Non-browser
	// clients (telemetry tools, scripts) omit it and are allowed, since
	// CORS protects only browser contexts.
	if origin == "" {
		return true
	}

	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// WebSocket upgrades the connection and hands it to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
