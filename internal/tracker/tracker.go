// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

// Package tracker implements the position ingestion path: the
// insert-or-update decision against the store, the last-position cache,
// and the publish of the resulting event to subscribed clients.
//
// Effect ordering is the core contract: the cache is mutated and the
// event published only after the authoritative store write succeeds.
// A failed store write leaves the cache untouched so the two can never
// diverge from a partial write.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skywatch-io/skywatch/internal/logging"
	"github.com/skywatch-io/skywatch/internal/metrics"
	"github.com/skywatch-io/skywatch/internal/models"
)

// PositionStore is the persistence interface the tracker consumes.
// Implemented by *database.DB; tests substitute a fake.
type PositionStore interface {
	// FindPosition returns the record for (category, droneID), or (nil, nil)
	// when absent.
	FindPosition(ctx context.Context, category models.Category, droneID string) (*models.DronePosition, error)

	// GetPosition returns the record with the given row id, or (nil, nil)
	// when absent.
	GetPosition(ctx context.Context, id int64) (*models.DronePosition, error)

	// InsertPosition inserts a new record and returns the store-assigned id.
	InsertPosition(ctx context.Context, rec *models.DronePosition) (int64, error)

	// UpdatePosition updates the row identified by rec.ID and returns the
	// affected row count.
	UpdatePosition(ctx context.Context, rec *models.DronePosition) (int64, error)

	// DeletePosition deletes by row id and returns the affected row count.
	DeletePosition(ctx context.Context, id int64) (int64, error)
}

// EventPublisher is the fan-out capability the tracker publishes through.
// Implemented by *websocket.Hub; tests substitute a recorder.
type EventPublisher interface {
	// Publish delivers to clients subscribed to the drone's channel.
	Publish(droneID, event string, payload interface{})
}

// Tracker ties the store, the per-category last-position caches, and the
// subscription hub together. It is safe for concurrent use: a per-drone
// mutex serializes the check-then-write sequence for a single drone ID so
// updates apply in arrival order, while different drones proceed in
// parallel. The lock is never held across publish.
type Tracker struct {
	store  PositionStore
	pub    EventPublisher
	caches map[models.Category]*LastPositionCache

	// droneLocks maps drone ID to *sync.Mutex.
	droneLocks sync.Map
}

// New creates a Tracker with empty caches.
func New(store PositionStore, pub EventPublisher) *Tracker {
	return &Tracker{
		store: store,
		pub:   pub,
		caches: map[models.Category]*LastPositionCache{
			models.CategoryFriendly: NewLastPositionCache(),
			models.CategoryHostile:  NewLastPositionCache(),
		},
	}
}

// lockFor returns the mutex serializing writes for one drone ID.
func (t *Tracker) lockFor(droneID string) *sync.Mutex {
	mu, _ := t.droneLocks.LoadOrStore(droneID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Record applies an inbound position report with upsert-by-drone-ID
// semantics, for both categories uniformly.
//
// Sequence of effects:
//  1. Existence check against the store by (category, drone ID).
//  2. Found: update that row, merging the stored identity with the new
//     field values and a fresh observation time. Not found: insert.
//  3. Cache overwrite for the drone ID.
//  4. Publish entity-created or entity-updated to the drone's channel.
//
// Any store failure aborts before the cache or publish effects. The
// returned bool reports whether a new row was created.
func (t *Tracker) Record(ctx context.Context, report *Report) (*models.DronePosition, bool, error) {
	if err := report.Validate(); err != nil {
		return nil, false, err
	}

	mu := t.lockFor(report.DroneID)
	mu.Lock()

	existing, err := t.store.FindPosition(ctx, report.Category, report.DroneID)
	if err != nil {
		mu.Unlock()
		return nil, false, fmt.Errorf("find position for %s: %w", report.DroneID, err)
	}

	rec := report.record()
	rec.ObservedAt = time.Now().UTC()

	var event string
	created := false

	if existing != nil {
		rec.ID = existing.ID
		// An imageless re-report keeps the stored detection image; only
		// a report carrying a new path replaces it.
		if rec.ImagePath == "" {
			rec.ImagePath = existing.ImagePath
		}
		if _, err := t.store.UpdatePosition(ctx, rec); err != nil {
			mu.Unlock()
			return nil, false, fmt.Errorf("update position %d: %w", existing.ID, err)
		}
		event = EventEntityUpdated
	} else {
		id, err := t.store.InsertPosition(ctx, rec)
		if err != nil {
			mu.Unlock()
			return nil, false, fmt.Errorf("insert position for %s: %w", report.DroneID, err)
		}
		rec.ID = id
		event = EventEntityCreated
		created = true
	}

	t.cacheFor(report.Category).Put(report.DroneID, rec)
	metrics.CacheEntries.WithLabelValues(string(report.Category)).Set(float64(t.cacheFor(report.Category).Len()))
	mu.Unlock()

	t.pub.Publish(report.DroneID, event, rec)

	logging.Ctx(ctx).Debug().
		Str("drone_id", report.DroneID).
		Str("category", string(report.Category)).
		Str("event", event).
		Int64("id", rec.ID).
		Msg("position recorded")

	return rec, created, nil
}

// UpdateByID updates an existing row by store id, used by the HTTP PUT
// path. The stored drone ID and category are authoritative; the report's
// position fields replace the stored ones. Returns ErrNotFound when the
// row does not exist.
func (t *Tracker) UpdateByID(ctx context.Context, id int64, report *Report) (*models.DronePosition, error) {
	existing, err := t.store.GetPosition(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get position %d: %w", id, err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	report.DroneID = existing.DroneID
	report.Category = existing.Category
	if err := report.Validate(); err != nil {
		return nil, err
	}

	mu := t.lockFor(existing.DroneID)
	mu.Lock()

	rec := report.record()
	rec.ID = existing.ID
	rec.ObservedAt = time.Now().UTC()
	if rec.ImagePath == "" {
		rec.ImagePath = existing.ImagePath
	}

	if _, err := t.store.UpdatePosition(ctx, rec); err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("update position %d: %w", id, err)
	}

	t.cacheFor(existing.Category).Put(existing.DroneID, rec)
	mu.Unlock()

	t.pub.Publish(existing.DroneID, EventEntityUpdated, rec)
	return rec, nil
}

// DeleteByID removes the row, the cache entry, and publishes a removal
// event carrying the drone ID to the drone's channel. Deleting a
// nonexistent row returns ErrNotFound, which callers report as a
// not-found condition rather than a fatal error.
func (t *Tracker) DeleteByID(ctx context.Context, id int64) error {
	existing, err := t.store.GetPosition(ctx, id)
	if err != nil {
		return fmt.Errorf("get position %d: %w", id, err)
	}
	if existing == nil {
		return ErrNotFound
	}

	mu := t.lockFor(existing.DroneID)
	mu.Lock()

	if _, err := t.store.DeletePosition(ctx, id); err != nil {
		mu.Unlock()
		return fmt.Errorf("delete position %d: %w", id, err)
	}

	t.cacheFor(existing.Category).Remove(existing.DroneID)
	metrics.CacheEntries.WithLabelValues(string(existing.Category)).Set(float64(t.cacheFor(existing.Category).Len()))
	mu.Unlock()

	t.pub.Publish(existing.DroneID, EventEntityRemoved, &Removal{
		ID:      existing.ID,
		DroneID: existing.DroneID,
	})

	logging.Ctx(ctx).Info().
		Str("drone_id", existing.DroneID).
		Int64("id", id).
		Msg("position deleted")

	return nil
}

// LastKnown returns the cached last positions for one category, in
// insertion order.
func (t *Tracker) LastKnown(category models.Category) []*models.DronePosition {
	return t.cacheFor(category).Values()
}

// LastPosition returns the cached record for a drone ID, checking the
// hostile cache first. Used by the hub for catch-up delivery on
// subscribe, where the drone ID alone identifies the channel.
func (t *Tracker) LastPosition(droneID string) (*models.DronePosition, bool) {
	if rec, ok := t.caches[models.CategoryHostile].Get(droneID); ok {
		return rec, true
	}
	return t.caches[models.CategoryFriendly].Get(droneID)
}

// cacheFor returns the cache for a category. Callers validate the
// category first, so a missing entry is a programmer error.
func (t *Tracker) cacheFor(category models.Category) *LastPositionCache {
	return t.caches[category]
}
