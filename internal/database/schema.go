// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
//
// All columns are defined in the initial CREATE TABLE statements so the
// schema has a single source of truth and startup needs no migrations.
// Row IDs come from DuckDB sequences; positions carry a unique
// (category, drone_id) pair because ingestion upserts by drone ID.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS drone_positions_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS restricted_zones_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1`,

		`CREATE TABLE IF NOT EXISTS drone_positions (
			id BIGINT PRIMARY KEY DEFAULT nextval('drone_positions_id_seq'),
			drone_id TEXT NOT NULL,
			category TEXT NOT NULL,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			altitude DOUBLE NOT NULL DEFAULT 0,
			confidence DOUBLE,
			width DOUBLE,
			height DOUBLE,
			weather TEXT,
			image_path TEXT,
			observed_at TIMESTAMP NOT NULL,
			UNIQUE (category, drone_id)
		)`,

		`CREATE TABLE IF NOT EXISTS restricted_zones (
			id BIGINT PRIMARY KEY DEFAULT nextval('restricted_zones_id_seq'),
			name TEXT NOT NULL,
			center_lat DOUBLE NOT NULL,
			center_lng DOUBLE NOT NULL,
			radius_meters DOUBLE NOT NULL,
			created_by BIGINT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'operator',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// createIndexes creates indexes for the hot query paths: recent-position
// listings filter by category and sort by observation time, and the
// ingest path looks rows up by (category, drone_id).
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_positions_category_observed ON drone_positions (category, observed_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_drone_id ON drone_positions (drone_id)`,
		`CREATE INDEX IF NOT EXISTS idx_zones_created_by ON restricted_zones (created_by)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
