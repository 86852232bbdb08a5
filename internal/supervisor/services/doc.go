// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

/*
Package services provides suture.Service wrappers for Skywatch components.

Each wrapper adapts a component lifecycle (Run, ListenAndServe) to
suture's context-aware Serve pattern and implements fmt.Stringer so the
supervisor can name the service in log messages.

Available services:

  - HTTPServerService: wraps *http.Server, graceful Shutdown on cancel
  - WebSocketHubService: wraps the websocket hub's Run loop
  - TelemetryIngestService: wraps the NATS ingestion pipeline

The wrappers depend on small local interfaces rather than the concrete
packages, so they can be tested with mocks and stay free of import
cycles.
*/
package services
