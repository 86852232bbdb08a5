// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package tracker

import (
	"fmt"
	"sync"
	"testing"

	"github.com/skywatch-io/skywatch/internal/models"
)

func pos(droneID string, lat, lng float64) *models.DronePosition {
	return &models.DronePosition{
		DroneID:   droneID,
		Category:  models.CategoryFriendly,
		Latitude:  lat,
		Longitude: lng,
	}
}

func TestCachePutOverwrites(t *testing.T) {
	c := NewLastPositionCache()

	c.Put("DJI-001", pos("DJI-001", 10, 20))
	c.Put("DJI-001", pos("DJI-001", 11, 21))

	got, ok := c.Get("DJI-001")
	if !ok {
		t.Fatal("expected entry for DJI-001")
	}
	if got.Latitude != 11 || got.Longitude != 21 {
		t.Errorf("expected last write to win, got lat=%v lng=%v", got.Latitude, got.Longitude)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after overwrite, got %d", c.Len())
	}
}

func TestCacheGetMissing(t *testing.T) {
	c := NewLastPositionCache()

	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for unknown drone ID")
	}
}

func TestCacheGetReturnsCopy(t *testing.T) {
	c := NewLastPositionCache()
	c.Put("DJI-001", pos("DJI-001", 10, 20))

	got, _ := c.Get("DJI-001")
	got.Latitude = 99

	again, _ := c.Get("DJI-001")
	if again.Latitude != 10 {
		t.Errorf("mutation of returned record leaked into the cache: lat=%v", again.Latitude)
	}
}

func TestCacheRemove(t *testing.T) {
	c := NewLastPositionCache()
	c.Put("a", pos("a", 1, 1))
	c.Put("b", pos("b", 2, 2))

	c.Remove("a")

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be removed")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after remove, got %d", c.Len())
	}

	// Removing an absent key is a no-op.
	c.Remove("never-seen")
	if c.Len() != 1 {
		t.Errorf("expected remove of absent key to be a no-op, got %d entries", c.Len())
	}
}

func TestCacheValuesInsertionOrder(t *testing.T) {
	c := NewLastPositionCache()
	c.Put("first", pos("first", 1, 1))
	c.Put("second", pos("second", 2, 2))
	c.Put("third", pos("third", 3, 3))

	// Overwriting keeps the original insertion slot.
	c.Put("first", pos("first", 9, 9))

	values := c.Values()
	if len(values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(values))
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if values[i].DroneID != w {
			t.Errorf("position %d: expected %s, got %s", i, w, values[i].DroneID)
		}
	}
	if values[0].Latitude != 9 {
		t.Errorf("expected overwritten value at original slot, got lat=%v", values[0].Latitude)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewLastPositionCache()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("drone-%d", n%5)
			for j := 0; j < 50; j++ {
				c.Put(id, pos(id, float64(j), float64(j)))
				c.Get(id)
				c.Values()
			}
		}(i)
	}
	wg.Wait()

	if c.Len() != 5 {
		t.Errorf("expected 5 distinct entries, got %d", c.Len())
	}
}
