// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package api

import (
	"github.com/skywatch-io/skywatch/internal/validation"
)

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=256"`
}

// HostileDroneRequest is the body for hostile drone create and update.
// Optional detection attributes come from the image analysis pipeline
// and may be absent on manual reports.
type HostileDroneRequest struct {
	DroneID   string  `json:"drone_id" validate:"required,min=1,max=128"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	Altitude  float64 `json:"altitude" validate:"gte=-500,lte=50000"`

	Confidence *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Width      *float64 `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height     *float64 `json:"height,omitempty" validate:"omitempty,gt=0"`
	Weather    string   `json:"weather,omitempty" validate:"max=128"`
	ImagePath  string   `json:"image_path,omitempty" validate:"omitempty,max=512"`
}

// ZoneRequest is the body for restricted zone create and update.
type ZoneRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=128"`
	CenterLat    float64 `json:"center_lat" validate:"latitude"`
	CenterLng    float64 `json:"center_lng" validate:"longitude"`
	RadiusMeters float64 `json:"radius_meters" validate:"gt=0,lte=100000"`
}

// validateRequest runs struct validation and converts failures into the
// API error shape. Returns nil when the request is valid.
func validateRequest(req interface{}) *validation.APIError {
	if verr := validation.ValidateStruct(req); verr != nil {
		return verr.ToAPIError()
	}
	return nil
}
