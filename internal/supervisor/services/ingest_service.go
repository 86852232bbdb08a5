// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package services

import (
	"context"
)

// PipelineRunner matches *ingest.Pipeline's Run method.
type PipelineRunner interface {
	Run(ctx context.Context) error
}

// TelemetryIngestService wraps the NATS ingestion pipeline as a
// supervised service. A startup failure (broker unreachable, stream
// missing) is returned to suture, which restarts the pipeline with
// backoff while the rest of the process keeps serving.
type TelemetryIngestService struct {
	pipeline PipelineRunner
	name     string
}

// NewTelemetryIngestService creates a new ingestion service wrapper.
func NewTelemetryIngestService(pipeline PipelineRunner) *TelemetryIngestService {
	return &TelemetryIngestService{
		pipeline: pipeline,
		name:     "telemetry-ingest",
	}
}

// Serve implements suture.Service.
func (s *TelemetryIngestService) Serve(ctx context.Context) error {
	return s.pipeline.Run(ctx)
}

// String implements fmt.Stringer for logging.
func (s *TelemetryIngestService) String() string {
	return s.name
}
