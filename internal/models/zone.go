// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package models

import "time"

// RestrictedZone is a circular no-fly area drawn by an operator.
//
// Zones follow a plain CRUD lifecycle with no derived cache - every read
// goes to the store, and every write is broadcast to all connected clients
// rather than to a per-drone channel.
type RestrictedZone struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	CenterLat    float64 `json:"center_lat"`
	CenterLng    float64 `json:"center_lng"`
	RadiusMeters float64 `json:"radius_meters"`

	CreatedBy         int64  `json:"created_by"`
	CreatedByUsername string `json:"created_by_username,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ZoneRemoval is the payload broadcast when a zone is deleted.
// Clients only need the id to clear local state.
type ZoneRemoval struct {
	ID int64 `json:"id"`
}
