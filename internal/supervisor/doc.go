// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

/*
Package supervisor provides process supervision using suture v4.

The tree organizes long-running services into two layers for failure
isolation:

	RootSupervisor ("skywatch")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService
	│   └── TelemetryIngestService (if NATS_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in the ingestion pipeline restarts only that pipeline; the API
keeps serving from the store and cache. Crashed services restart with
exponential backoff, and supervision events are logged through slog via
the sutureslog adapter.

Service return behavior:
  - nil: stopped cleanly, not restarted
  - error: crashed, restarted per backoff policy
  - ctx.Err() on cancellation: normal shutdown

DuckDB is intentionally not supervised: it is an embedded library whose
connections the database package manages, and a crash there requires a
process restart anyway.
*/
package supervisor
