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

// positionColumns is the select list shared by all position queries.
// Weather and image_path are coalesced so NULLs scan into plain strings.
const positionColumns = `id, drone_id, category, latitude, longitude, altitude,
	confidence, width, height, COALESCE(weather, ''), COALESCE(image_path, ''), observed_at`

func scanPosition(row interface{ Scan(...interface{}) error }) (*models.DronePosition, error) {
	var rec models.DronePosition
	var category string
	err := row.Scan(
		&rec.ID, &rec.DroneID, &category, &rec.Latitude, &rec.Longitude, &rec.Altitude,
		&rec.Confidence, &rec.Width, &rec.Height, &rec.Weather, &rec.ImagePath, &rec.ObservedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Category = models.Category(category)
	return &rec, nil
}

// FindPosition returns the record for (category, droneID), or (nil, nil)
// when no such drone has been seen.
func (db *DB) FindPosition(ctx context.Context, category models.Category, droneID string) (*models.DronePosition, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM drone_positions WHERE category = ? AND drone_id = ?`, positionColumns)
	rec, err := scanPosition(db.conn.QueryRowContext(ctx, query, string(category), droneID))
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("find", "drone_positions", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery("find", "drone_positions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to find position for %s: %w", droneID, err)
	}
	return rec, nil
}

// GetPosition returns the record with the given row id, or (nil, nil)
// when absent.
func (db *DB) GetPosition(ctx context.Context, id int64) (*models.DronePosition, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM drone_positions WHERE id = ?`, positionColumns)
	rec, err := scanPosition(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("get", "drone_positions", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery("get", "drone_positions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get position %d: %w", id, err)
	}
	return rec, nil
}

// InsertPosition inserts a new record and returns the assigned row id.
func (db *DB) InsertPosition(ctx context.Context, rec *models.DronePosition) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if rec.ObservedAt.IsZero() {
		rec.ObservedAt = time.Now().UTC()
	}

	start := time.Now()
	query := `INSERT INTO drone_positions (
		drone_id, category, latitude, longitude, altitude,
		confidence, width, height, weather, image_path, observed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?)
	RETURNING id`

	var id int64
	err := db.conn.QueryRowContext(ctx, query,
		rec.DroneID, string(rec.Category), rec.Latitude, rec.Longitude, rec.Altitude,
		rec.Confidence, rec.Width, rec.Height, rec.Weather, rec.ImagePath, rec.ObservedAt,
	).Scan(&id)
	metrics.RecordDBQuery("insert", "drone_positions", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to insert position for %s: %w", rec.DroneID, err)
	}
	return id, nil
}

// UpdatePosition updates the row identified by rec.ID and returns the
// affected row count. Drone ID and category are part of the row identity
// and are not changed here.
func (db *DB) UpdatePosition(ctx context.Context, rec *models.DronePosition) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := `UPDATE drone_positions SET
		latitude = ?, longitude = ?, altitude = ?,
		confidence = ?, width = ?, height = ?,
		weather = NULLIF(?, ''), image_path = NULLIF(?, ''), observed_at = ?
	WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		rec.Latitude, rec.Longitude, rec.Altitude,
		rec.Confidence, rec.Width, rec.Height,
		rec.Weather, rec.ImagePath, rec.ObservedAt, rec.ID,
	)
	metrics.RecordDBQuery("update", "drone_positions", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to update position %d: %w", rec.ID, err)
	}
	return result.RowsAffected()
}

// DeletePosition deletes by row id and returns the affected row count.
func (db *DB) DeletePosition(ctx context.Context, id int64) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, `DELETE FROM drone_positions WHERE id = ?`, id)
	metrics.RecordDBQuery("delete", "drone_positions", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete position %d: %w", id, err)
	}
	return result.RowsAffected()
}

// RecentPositions returns up to limit records for a category, most
// recently observed first.
func (db *DB) RecentPositions(ctx context.Context, category models.Category, limit int) ([]*models.DronePosition, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM drone_positions
		WHERE category = ?
		ORDER BY observed_at DESC
		LIMIT ?`, positionColumns)

	rows, err := db.conn.QueryContext(ctx, query, string(category), limit)
	metrics.RecordDBQuery("recent", "drone_positions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent positions: %w", err)
	}
	defer closeQuietly(rows)

	var records []*models.DronePosition
	for rows.Next() {
		rec, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate position rows: %w", err)
	}
	return records, nil
}

// CountPositions returns the number of stored positions per category.
func (db *DB) CountPositions(ctx context.Context, category models.Category) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM drone_positions WHERE category = ?`, string(category),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count positions: %w", err)
	}
	return count, nil
}
