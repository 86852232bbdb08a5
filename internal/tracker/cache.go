// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package tracker

import (
	"sync"

	"github.com/skywatch-io/skywatch/internal/models"
)

// LastPositionCache maps drone ID to the most recently accepted position
// record. It is a volatile derived projection of the store: rebuilt
// incrementally as writes occur, never persisted, lost on restart.
//
// Put is an unconditional overwrite - last writer wins even if records
// complete out of order. Nothing upstream guards against out-of-order
// writes, so the cache does not either.
//
// Values returns records in insertion order. A single mutex guards the
// map and the order slice; contention is not a concern at this scale.
type LastPositionCache struct {
	mu      sync.Mutex
	entries map[string]*models.DronePosition
	order   []string
}

// NewLastPositionCache creates an empty cache.
// Each Tracker owns its own instances; there is no package-level cache.
func NewLastPositionCache() *LastPositionCache {
	return &LastPositionCache{
		entries: make(map[string]*models.DronePosition),
	}
}

// Get returns the cached record for a drone ID, if any.
func (c *LastPositionCache) Get(droneID string) (*models.DronePosition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.entries[droneID]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Put stores a record, overwriting any existing entry for the drone ID.
func (c *LastPositionCache) Put(droneID string, rec *models.DronePosition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[droneID]; !exists {
		c.order = append(c.order, droneID)
	}
	c.entries[droneID] = rec.Clone()
}

// Remove deletes the entry for a drone ID. Removing an absent entry is a no-op.
func (c *LastPositionCache) Remove(droneID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[droneID]; !exists {
		return
	}
	delete(c.entries, droneID)
	for i, id := range c.order {
		if id == droneID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Values returns a snapshot of all cached records in insertion order.
func (c *LastPositionCache) Values() []*models.DronePosition {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.DronePosition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id].Clone())
	}
	return out
}

// Len returns the number of cached entries.
func (c *LastPositionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
