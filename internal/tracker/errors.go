// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package tracker

import "errors"

var (
	// ErrNotFound indicates an operation referenced a nonexistent record.
	// Reported distinctly from generic store failure.
	ErrNotFound = errors.New("position not found")

	// ErrInvalidReport indicates a malformed or incomplete inbound report,
	// rejected before any side effects.
	ErrInvalidReport = errors.New("invalid position report")
)
