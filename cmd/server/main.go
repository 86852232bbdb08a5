// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

// Package main is the entry point for the Skywatch server.
//
// Skywatch tracks friendly and hostile drones over a monitored area:
// friendly drones report their own positions over a NATS telemetry bus,
// hostile drones are reported by detection stations over HTTP, and web
// clients follow both in real time over websockets. Restricted airspace
// zones are managed by administrators and broadcast to every client.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered sources (defaults, optional
//     config.yaml, environment variables)
//  2. Logging: zerolog, format and level from config
//  3. Database: DuckDB store for positions, zones, and users
//  4. Admin bootstrap: seed the admin account from config
//  5. Hub and tracker: websocket hub, position tracker, caches
//  6. Supervisor tree: hub and telemetry pipeline in the messaging
//     layer, HTTP server in the api layer
//
// # Configuration
//
// Required:
//   - JWT_SECRET: 32+ character secret for token signing
//   - ADMIN_USERNAME / ADMIN_PASSWORD: bootstrap admin account
//
// Common:
//   - HTTP_PORT (default 8420), DUCKDB_PATH, NATS_ENABLED,
//     NATS_EMBEDDED_SERVER, NATS_TOPIC, UPLOAD_DIR, LOG_LEVEL
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// connections, the hub notifies and closes websocket clients, the
// telemetry subscriber closes, and the database checkpoints before
// closing.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skywatch-io/skywatch/internal/api"
	"github.com/skywatch-io/skywatch/internal/auth"
	"github.com/skywatch-io/skywatch/internal/config"
	"github.com/skywatch-io/skywatch/internal/database"
	"github.com/skywatch-io/skywatch/internal/ingest"
	"github.com/skywatch-io/skywatch/internal/logging"
	"github.com/skywatch-io/skywatch/internal/supervisor"
	"github.com/skywatch-io/skywatch/internal/supervisor/services"
	"github.com/skywatch-io/skywatch/internal/tracker"
	ws "github.com/skywatch-io/skywatch/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Skywatch")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	if err := bootstrapAdmin(db, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to bootstrap admin account")
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	// Hub and tracker. The hub publishes tracker events to subscribed
	// clients, the tracker provides the catch-up source for new
	// subscriptions.
	wsHub := ws.NewHub()
	trk := tracker.New(db, wsHub)
	wsHub.SetCatchUpSource(trk)

	authMW := auth.NewMiddleware(jwtManager, &cfg.Security)
	chiMW := api.NewChiMiddlewareFromSecurity(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)

	handler := api.NewHandler(db, trk, cfg, jwtManager, wsHub)
	router := api.NewRouter(handler, authMW, chiMW, cfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The slog adapter bridges zerolog to sutureslog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	if cfg.NATS.Enabled {
		pipeline := ingest.NewPipeline(&cfg.NATS, trk)
		tree.AddMessagingService(services.NewTelemetryIngestService(pipeline))
		logging.Info().Str("topic", cfg.NATS.Topic).Msg("Telemetry pipeline added to supervisor tree")
	} else {
		logging.Info().Msg("NATS disabled, friendly telemetry ingestion is off")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the error channel until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	authMW.Stop()
	logging.Info().Msg("Skywatch stopped gracefully")
}

// bootstrapAdmin seeds the admin account from config. An existing
// account keeps its stored credentials.
func bootstrapAdmin(db *database.DB, cfg *config.Config) error {
	if cfg.Security.AdminUsername == "" || cfg.Security.AdminPassword == "" {
		logging.Warn().Msg("ADMIN_USERNAME/ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	hash, err := auth.HashPassword(cfg.Security.AdminPassword)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return db.EnsureAdminUser(ctx, cfg.Security.AdminUsername, hash)
}
