// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package api

import (
	"net/http"
	"time"
)

// Health handles GET /health: overall status including store
// connectivity, connected websocket clients, and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	clients := 0
	if h.wsHub != nil {
		clients = h.wsHub.GetClientCount()
	}

	rw.Success(map[string]interface{}{
		"status":             status,
		"database_connected": dbConnected,
		"websocket_clients":  clients,
		"uptime_seconds":     time.Since(h.startTime).Seconds(),
	})
}

// HealthLive handles the liveness probe: 200 whenever the process is
// alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles the readiness probe: 200 only when the store is
// reachable, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil
	if !dbConnected {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service not ready", map[string]interface{}{
			"database_connected": false,
		})
		return
	}

	rw.Success(map[string]interface{}{
		"ready":              true,
		"database_connected": true,
		"uptime_seconds":     time.Since(h.startTime).Seconds(),
	})
}
