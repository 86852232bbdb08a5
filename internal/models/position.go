// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

// Package models defines data structures shared across the Skywatch application.
// These models represent drone position observations, restricted zones, and users.

package models

import (
	"fmt"
	"time"
)

// Category classifies a tracked drone.
// Friendly drones report their own telemetry over the message bus;
// hostile drones are sensor detections reported over HTTP.
type Category string

const (
	// CategoryFriendly identifies drones operated by us.
	CategoryFriendly Category = "friendly"

	// CategoryHostile identifies detected drones that are not ours.
	CategoryHostile Category = "hostile"
)

// ParseCategory converts a path/query string to a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryFriendly, CategoryHostile:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// DronePosition is one reported observation of a tracked drone.
//
// The row id is store-assigned and monotonic by insertion. DroneID identifies
// the physical aircraft and is NOT unique across observations - the store
// keeps the latest observation per (category, drone_id) via upsert, and the
// tracker keeps a volatile last-position cache keyed by drone_id.
//
// Optional detection metadata (confidence, bounding box, weather, image)
// is only populated for hostile detections; friendly telemetry carries
// position and altitude alone.
//
// JSON serialization uses omitempty for optional pointer fields so the wire
// format for friendly telemetry stays minimal.
type DronePosition struct {
	ID       int64    `json:"id"`
	DroneID  string   `json:"drone_id"`
	Category Category `json:"category"`

	// Geographic position (degrees) and altitude (meters)
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`

	// Detection metadata (hostile category only)
	Confidence *float64 `json:"confidence,omitempty"` // Detector confidence, 0.0-1.0
	Width      *float64 `json:"width,omitempty"`      // Bounding box width (meters)
	Height     *float64 `json:"height,omitempty"`     // Bounding box height (meters)
	Weather    string   `json:"weather,omitempty"`    // Free-text weather tag
	ImagePath  string   `json:"image_path,omitempty"` // Stored detection image

	// ObservedAt defaults to store-write time when the report carries none.
	ObservedAt time.Time `json:"observed_at"`
}

// Clone returns a deep copy so cached records cannot be mutated by callers.
func (p *DronePosition) Clone() *DronePosition {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Confidence != nil {
		v := *p.Confidence
		clone.Confidence = &v
	}
	if p.Width != nil {
		v := *p.Width
		clone.Width = &v
	}
	if p.Height != nil {
		v := *p.Height
		clone.Height = &v
	}
	return &clone
}
