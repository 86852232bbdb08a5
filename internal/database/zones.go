// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skywatch-io/skywatch/internal/metrics"
	"github.com/skywatch-io/skywatch/internal/models"
)

// zoneColumns joins users so each zone carries the creator's username
// for display without a second round trip.
const zoneColumns = `z.id, z.name, z.center_lat, z.center_lng, z.radius_meters,
	COALESCE(z.created_by, 0), COALESCE(u.username, ''), z.created_at, z.updated_at`

func scanZone(row interface{ Scan(...interface{}) error }) (*models.RestrictedZone, error) {
	var zone models.RestrictedZone
	err := row.Scan(
		&zone.ID, &zone.Name, &zone.CenterLat, &zone.CenterLng, &zone.RadiusMeters,
		&zone.CreatedBy, &zone.CreatedByUsername, &zone.CreatedAt, &zone.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

// ListZones returns all restricted zones ordered by creation time.
func (db *DB) ListZones(ctx context.Context) ([]*models.RestrictedZone, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM restricted_zones z
		LEFT JOIN users u ON u.id = z.created_by
		ORDER BY z.created_at, z.id`, zoneColumns)

	rows, err := db.conn.QueryContext(ctx, query)
	metrics.RecordDBQuery("list", "restricted_zones", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer closeQuietly(rows)

	var zones []*models.RestrictedZone
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan zone row: %w", err)
		}
		zones = append(zones, zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zone rows: %w", err)
	}
	return zones, nil
}

// GetZone returns one zone by id, or (nil, nil) when absent.
func (db *DB) GetZone(ctx context.Context, id int64) (*models.RestrictedZone, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM restricted_zones z
		LEFT JOIN users u ON u.id = z.created_by
		WHERE z.id = ?`, zoneColumns)

	zone, err := scanZone(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("get", "restricted_zones", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery("get", "restricted_zones", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get zone %d: %w", id, err)
	}
	return zone, nil
}

// InsertZone inserts a zone and returns the assigned row id.
func (db *DB) InsertZone(ctx context.Context, zone *models.RestrictedZone) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	zone.CreatedAt = now
	zone.UpdatedAt = now

	start := time.Now()
	query := `INSERT INTO restricted_zones (name, center_lat, center_lng, radius_meters, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, NULLIF(?, 0), ?, ?)
		RETURNING id`

	var id int64
	err := db.conn.QueryRowContext(ctx, query,
		zone.Name, zone.CenterLat, zone.CenterLng, zone.RadiusMeters,
		zone.CreatedBy, zone.CreatedAt, zone.UpdatedAt,
	).Scan(&id)
	metrics.RecordDBQuery("insert", "restricted_zones", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to insert zone %q: %w", zone.Name, err)
	}
	return id, nil
}

// UpdateZone updates a zone's shape and name, returning the affected row
// count. Creator and creation time never change.
func (db *DB) UpdateZone(ctx context.Context, zone *models.RestrictedZone) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	zone.UpdatedAt = time.Now().UTC()

	start := time.Now()
	query := `UPDATE restricted_zones SET
		name = ?, center_lat = ?, center_lng = ?, radius_meters = ?, updated_at = ?
	WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		zone.Name, zone.CenterLat, zone.CenterLng, zone.RadiusMeters, zone.UpdatedAt, zone.ID,
	)
	metrics.RecordDBQuery("update", "restricted_zones", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to update zone %d: %w", zone.ID, err)
	}
	return result.RowsAffected()
}

// DeleteZone deletes by id and returns the affected row count.
func (db *DB) DeleteZone(ctx context.Context, id int64) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, `DELETE FROM restricted_zones WHERE id = ?`, id)
	metrics.RecordDBQuery("delete", "restricted_zones", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete zone %d: %w", id, err)
	}
	return result.RowsAffected()
}
