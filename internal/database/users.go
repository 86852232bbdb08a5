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

	"github.com/skywatch-io/skywatch/internal/logging"
	"github.com/skywatch-io/skywatch/internal/metrics"
	"github.com/skywatch-io/skywatch/internal/models"
)

// GetUserByUsername returns the user record, or (nil, nil) when no such
// user exists.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var user models.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?`, username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("get", "users", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery("get", "users", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return &user, nil
}

// CreateUser inserts a user and returns the assigned id. The password
// hash must already be computed; this layer never sees plaintext.
func (db *DB) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	var id int64
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		user.Username, user.PasswordHash, user.Role, user.CreatedAt,
	).Scan(&id)
	metrics.RecordDBQuery("insert", "users", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to create user %q: %w", user.Username, err)
	}
	return id, nil
}

// EnsureAdminUser seeds the admin account on first start. When the
// username already exists the stored credentials win and nothing is
// changed, so a rotated config password does not silently overwrite a
// hash changed through other means.
func (db *DB) EnsureAdminUser(ctx context.Context, username, passwordHash string) error {
	existing, err := db.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	id, err := db.CreateUser(ctx, &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return err
	}

	logging.Info().Str("username", username).Int64("user_id", id).Msg("seeded admin user")
	return nil
}
