// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package ingest

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// PositionReport is the wire format published by friendly drones.
// Field names are fixed by the telemetry firmware.
type PositionReport struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Altitude  float64 `json:"alt"`
}

// ErrMalformedReport wraps every decode or validation failure so the
// consumer can count them under one reason.
var ErrMalformedReport = errors.New("malformed position report")

// ParsePositionReport decodes and validates a raw telemetry payload.
func ParsePositionReport(payload []byte) (*PositionReport, error) {
	var report PositionReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return &report, nil
}

// Validate checks the report carries an identity and plausible
// coordinates.
func (r *PositionReport) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedReport)
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrMalformedReport, r.Latitude)
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrMalformedReport, r.Longitude)
	}
	return nil
}
