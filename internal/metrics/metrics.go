// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

// Package metrics provides Prometheus instrumentation for:
//   - Position ingestion throughput and failures (bus + HTTP)
//   - Last-position cache size
//   - WebSocket connections, channel subscriptions, and event delivery
//   - Database query performance (DuckDB)
//   - API endpoint latency and throughput
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	PositionsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_positions_ingested_total",
			Help: "Total position reports accepted, by source and category",
		},
		[]string{"source", "category", "event"},
	)

	IngestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_ingest_failures_total",
			Help: "Total position reports rejected or failed, by source and reason",
		},
		[]string{"source", "reason"},
	)

	// Last-position cache metrics
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skywatch_last_position_cache_entries",
			Help: "Current number of drones in the last-position cache",
		},
		[]string{"category"},
	)

	// WebSocket metrics
	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skywatch_websocket_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)

	WSSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skywatch_websocket_subscriptions",
			Help: "Current number of channel subscriptions across all clients",
		},
	)

	WSEventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_websocket_events_delivered_total",
			Help: "Total events delivered to WebSocket clients, by event name",
		},
		[]string{"event"},
	)

	WSEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skywatch_websocket_events_dropped_total",
			Help: "Total events dropped due to full or closed client buffers",
		},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skywatch_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skywatch_api_requests_total",
			Help: "Total API requests, by method, endpoint, and status code",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skywatch_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skywatch_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordDBQuery observes a database query duration and counts failures.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
