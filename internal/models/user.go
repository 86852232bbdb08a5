// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package models

import "time"

// Account roles. Admins manage zones and hostile drone records;
// operators have read and subscribe access.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User is an operator account for the web console.
// PasswordHash is a bcrypt hash and is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
