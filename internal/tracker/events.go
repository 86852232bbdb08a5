// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package tracker

import (
	"fmt"

	"github.com/skywatch-io/skywatch/internal/models"
)

// Wire event names pushed to real-time clients.
const (
	EventEntityCreated = "entity-created"
	EventEntityUpdated = "entity-updated"
	EventEntityRemoved = "entity-removed"

	EventZoneCreated = "zone-created"
	EventZoneUpdated = "zone-updated"
	EventZoneDeleted = "zone-deleted"
)

// Removal is the payload published with entity-removed events.
// Subscribed clients need at least the drone ID to clear local state.
type Removal struct {
	ID      int64  `json:"id"`
	DroneID string `json:"drone_id"`
}

// Report is a validated inbound position update, from either the telemetry
// bus (friendly) or the HTTP detection endpoints (hostile).
type Report struct {
	DroneID  string
	Category models.Category

	Latitude  float64
	Longitude float64
	Altitude  float64

	Confidence *float64
	Width      *float64
	Height     *float64
	Weather    string
	ImagePath  string
}

// Validate rejects malformed reports before any store, cache, or publish
// side effect occurs.
func (r *Report) Validate() error {
	if r.DroneID == "" {
		return fmt.Errorf("%w: drone_id is required", ErrInvalidReport)
	}
	if _, err := models.ParseCategory(string(r.Category)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidReport, r.Latitude)
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidReport, r.Longitude)
	}
	if r.Confidence != nil && (*r.Confidence < 0 || *r.Confidence > 1) {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidReport, *r.Confidence)
	}
	return nil
}

// record builds a DronePosition from the report. The caller assigns the
// store id and observation time.
func (r *Report) record() *models.DronePosition {
	return &models.DronePosition{
		DroneID:    r.DroneID,
		Category:   r.Category,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Altitude:   r.Altitude,
		Confidence: r.Confidence,
		Width:      r.Width,
		Height:     r.Height,
		Weather:    r.Weather,
		ImagePath:  r.ImagePath,
	}
}
