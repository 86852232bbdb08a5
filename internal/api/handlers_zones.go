// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/skywatch-io/skywatch/internal/auth"
	"github.com/skywatch-io/skywatch/internal/logging"
	"github.com/skywatch-io/skywatch/internal/models"
	"github.com/skywatch-io/skywatch/internal/tracker"
)

// ListZones handles GET /zones.
func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	zones, err := h.db.ListZones(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessList(zones, len(zones))
}

// CreateZone handles POST /zones. The new zone is broadcast to every
// connected websocket client.
func (h *Handler) CreateZone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid request body")
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	zone := &models.RestrictedZone{
		Name:         req.Name,
		CenterLat:    req.CenterLat,
		CenterLng:    req.CenterLng,
		RadiusMeters: req.RadiusMeters,
		CreatedBy:    h.requestUserID(r),
	}

	id, err := h.db.InsertZone(r.Context(), zone)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	created, err := h.db.GetZone(r.Context(), id)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	h.publishZone(tracker.EventZoneCreated, created)
	rw.Created(created)
}

// UpdateZone handles PUT /zones/{id}.
func (h *Handler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := parseID(r)
	if err != nil {
		rw.BadRequest("Invalid id")
		return
	}

	var req ZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid request body")
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	zone := &models.RestrictedZone{
		ID:           id,
		Name:         req.Name,
		CenterLat:    req.CenterLat,
		CenterLng:    req.CenterLng,
		RadiusMeters: req.RadiusMeters,
	}

	affected, err := h.db.UpdateZone(r.Context(), zone)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if affected == 0 {
		rw.NotFound("Zone not found")
		return
	}

	updated, err := h.db.GetZone(r.Context(), id)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	h.publishZone(tracker.EventZoneUpdated, updated)
	rw.Success(updated)
}

// DeleteZone handles DELETE /zones/{id}. Connected clients receive the
// removed id so they can clear the zone from their map.
func (h *Handler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := parseID(r)
	if err != nil {
		rw.BadRequest("Invalid id")
		return
	}

	affected, err := h.db.DeleteZone(r.Context(), id)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if affected == 0 {
		rw.NotFound("Zone not found")
		return
	}

	h.publishZone(tracker.EventZoneDeleted, &models.ZoneRemoval{ID: id})
	rw.Success(map[string]interface{}{
		"deleted": true,
		"id":      id,
	})
}

// publishZone broadcasts a zone lifecycle event to all clients.
func (h *Handler) publishZone(event string, payload interface{}) {
	if h.wsHub == nil {
		return
	}
	h.wsHub.PublishGlobal(event, payload)
}

// requestUserID resolves the authenticated user's row id from the JWT
// claims. Returns 0 when the user cannot be resolved, which stores the
// zone without a creator reference.
func (h *Handler) requestUserID(r *http.Request) int64 {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return 0
	}

	user, err := h.db.GetUserByUsername(r.Context(), claims.Username)
	if err != nil || user == nil {
		if err != nil {
			logging.Warn().Err(err).Str("username", claims.Username).Msg("Failed to resolve zone creator")
		}
		return 0
	}
	return user.ID
}
