// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

// Package ingest consumes friendly-drone position reports from NATS
// JetStream and feeds them into the tracker.
//
// The feed is fire-and-forget telemetry: the next report supersedes the
// last, so a failed message is logged, counted, and acked rather than
// redelivered. Redelivering a stale position after newer ones have been
// applied would reorder the stream for no operational gain.
//
// An embedded NATS server is started when no external broker is
// configured, making single-binary deployments self-contained.
package ingest
