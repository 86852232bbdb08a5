// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/skywatch-io/skywatch/internal/config"
	"github.com/skywatch-io/skywatch/internal/logging"
)

// Pipeline composes the full ingestion path: optional embedded NATS
// server, durable JetStream subscriber, and the consumer that records
// friendly positions. It runs until its context is canceled, which
// makes it directly supervisable.
type Pipeline struct {
	cfg      *config.NATSConfig
	recorder Recorder
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(cfg *config.NATSConfig, recorder Recorder) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		recorder: recorder,
	}
}

// Run starts the pipeline and blocks until ctx is canceled or a
// component fails to start. Startup errors are returned so the
// supervisor can restart with backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := NewWatermillLogger()

	url := p.cfg.URL
	var embedded *EmbeddedServer
	if p.cfg.EmbeddedServer {
		var err error
		embedded, err = NewEmbeddedServer(p.cfg)
		if err != nil {
			return fmt.Errorf("start embedded nats server: %w", err)
		}
		url = embedded.ClientURL()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			embedded.Shutdown(shutdownCtx)
		}()
	}

	sub, err := NewSubscriber(p.cfg, url, logger)
	if err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}
	defer func() {
		if cerr := sub.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to close telemetry subscriber")
		}
	}()

	messages, err := sub.Subscribe(ctx, p.cfg.Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", p.cfg.Topic, err)
	}

	logging.Info().
		Str("component", "ingest").
		Str("topic", p.cfg.Topic).
		Str("url", url).
		Bool("embedded", embedded != nil).
		Msg("Telemetry pipeline running")

	NewConsumer(p.recorder).Run(ctx, messages)
	return ctx.Err()
}
