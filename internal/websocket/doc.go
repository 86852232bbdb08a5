// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

// Package websocket implements the subscription hub and its client
// connections.
//
// Every connected client receives global events (restricted zone
// changes). Position events are delivered only to clients subscribed to
// the drone's channel, where the channel name is the drone ID. On
// subscribe, a client receives the last cached position for that drone
// exactly once as catch-up, so a map can render immediately instead of
// waiting for the next live report.
//
// Slow clients are disconnected rather than buffered without bound: a
// client whose send queue is full when an event arrives is closed and
// removed from every channel.
package websocket
