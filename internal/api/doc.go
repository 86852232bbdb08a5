// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

// Package api provides the HTTP surface: authentication, hostile drone
// reporting, position queries, restricted zone management, health probes,
// and the websocket endpoint. Routing is Chi with per-group rate limits,
// responses use a uniform envelope with request ids for tracing.
package api
