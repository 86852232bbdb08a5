// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package ingest

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/skywatch-io/skywatch/internal/logging"
	"github.com/skywatch-io/skywatch/internal/metrics"
	"github.com/skywatch-io/skywatch/internal/models"
	"github.com/skywatch-io/skywatch/internal/tracker"
)

// Recorder records validated position reports. Satisfied by
// *tracker.Tracker.
type Recorder interface {
	Record(ctx context.Context, report *tracker.Report) (*models.DronePosition, bool, error)
}

// Consumer drains telemetry messages from a subscription channel and
// records them as friendly drone positions. Every message is acked
// regardless of outcome: a report that cannot be decoded or stored is
// logged and dropped, never redelivered (the next report for the same
// drone supersedes it anyway).
type Consumer struct {
	recorder Recorder
}

// NewConsumer creates a consumer that records reports via recorder.
func NewConsumer(recorder Recorder) *Consumer {
	return &Consumer{recorder: recorder}
}

// Run processes messages until the channel is closed or the context is
// canceled.
func (c *Consumer) Run(ctx context.Context, messages <-chan *message.Message) {
	logging.Info().
		Str("component", "ingest").
		Msg("Telemetry consumer started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().
				Str("component", "ingest").
				AnErr("reason", ctx.Err()).
				Msg("Telemetry consumer stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				logging.Info().
					Str("component", "ingest").
					Msg("Telemetry channel closed")
				return
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg *message.Message) {
	// Ack unconditionally: this path is log-and-drop, redelivery of a
	// stale position is worse than losing it.
	defer msg.Ack()

	report, err := ParsePositionReport(msg.Payload)
	if err != nil {
		metrics.IngestFailures.WithLabelValues("nats", "decode").Inc()
		logging.Warn().
			Str("component", "ingest").
			Str("message_id", msg.UUID).
			Err(err).
			Msg("Dropping malformed position report")
		return
	}

	rec := &tracker.Report{
		DroneID:   report.ID,
		Category:  models.CategoryFriendly,
		Latitude:  report.Latitude,
		Longitude: report.Longitude,
		Altitude:  report.Altitude,
	}

	_, created, err := c.recorder.Record(ctx, rec)
	if err != nil {
		metrics.IngestFailures.WithLabelValues("nats", "store").Inc()
		logging.Error().
			Str("component", "ingest").
			Str("drone_id", report.ID).
			Err(err).
			Msg("Dropping position report after store failure")
		return
	}

	event := tracker.EventEntityUpdated
	if created {
		event = tracker.EventEntityCreated
	}
	metrics.PositionsIngested.WithLabelValues("nats", string(models.CategoryFriendly), event).Inc()
}
