// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

// Package testinfra provides container-backed test infrastructure using
// testcontainers-go. Integration tests run against a real NATS server
// with JetStream enabled instead of mocks, and skip gracefully when
// Docker is not available.
//
// Build with -tags integration to include these tests:
//
//	go test -tags integration ./...
package testinfra
