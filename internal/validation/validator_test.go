// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package validation

import (
	"strings"
	"testing"
)

type zoneRequest struct {
	Name         string  `validate:"required,min=1,max=128"`
	CenterLat    float64 `validate:"latitude"`
	CenterLng    float64 `validate:"longitude"`
	RadiusMeters float64 `validate:"gt=0"`
}

func TestValidateStruct_Valid(t *testing.T) {
	req := zoneRequest{Name: "airport", CenterLat: 50.4, CenterLng: 30.5, RadiusMeters: 1000}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}

func TestValidateStruct_SingleFailure(t *testing.T) {
	req := zoneRequest{Name: "airport", CenterLat: 91, CenterLng: 30.5, RadiusMeters: 1000}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR code, got %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "latitude") {
		t.Errorf("expected latitude message, got %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "CenterLat" {
		t.Errorf("expected CenterLat field in details, got %v", apiErr.Details["field"])
	}
}

func TestValidateStruct_MultipleFailures(t *testing.T) {
	req := zoneRequest{Name: "", CenterLat: 91, CenterLng: -200, RadiusMeters: 0}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 4 {
		t.Errorf("expected 4 field errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("expected fields list in details, got %T", apiErr.Details["fields"])
	}
	if len(fields) != 4 {
		t.Errorf("expected 4 detail entries, got %d", len(fields))
	}
}

func TestValidateStruct_MessageTemplates(t *testing.T) {
	req := zoneRequest{Name: "", CenterLat: 0, CenterLng: 0, RadiusMeters: 1}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := err.Errors()[0].Error(); got != "Name is required" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}
