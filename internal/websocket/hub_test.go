// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/skywatch-io/skywatch/internal/logging"
	"github.com/skywatch-io/skywatch/internal/models"
	"github.com/skywatch-io/skywatch/internal/tracker"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates a hub and runs it until the test ends.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(10 * time.Millisecond)
	return hub
}

// createTestClient creates a client with no underlying connection.
func createTestClient(hub *Hub) *Client {
	return NewClient(hub, nil)
}

// registerClient registers a client and waits for the hub loop.
func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
	time.Sleep(20 * time.Millisecond)
}

// recvMessage reads one queued message or fails the test.
func recvMessage(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case msg := <-client.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

// expectNoMessage asserts the client's queue stays empty.
func expectNoMessage(t *testing.T, client *Client) {
	t.Helper()
	select {
	case msg := <-client.send:
		t.Fatalf("unexpected message %q on channel", msg.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeCatchUp struct {
	positions map[string]*models.DronePosition
}

func (f *fakeCatchUp) LastPosition(droneID string) (*models.DronePosition, bool) {
	rec, ok := f.positions[droneID]
	return rec, ok
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}

	checks := []struct {
		name   string
		check  bool
		errMsg string
	}{
		{"clients map", hub.clients != nil, "clients map not initialized"},
		{"channels map", hub.channels != nil, "channels map not initialized"},
		{"broadcast channel", hub.broadcast != nil, "broadcast channel not initialized"},
		{"Register channel", hub.Register != nil, "Register channel not initialized"},
		{"Unregister channel", hub.Unregister != nil, "Unregister channel not initialized"},
		{"empty clients", len(hub.clients) == 0, "clients map should be empty"},
	}

	for _, c := range checks {
		if !c.check {
			t.Error(c.errMsg)
		}
	}
}

func TestHub_ClientRegistration(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)

	registerClient(hub, client)
	if hub.GetClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", hub.GetClientCount())
	}

	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)
	if hub.GetClientCount() != 0 {
		t.Errorf("expected 0 clients after unregister, got %d", hub.GetClientCount())
	}
}

func TestHub_UnregisterNonExistentClient(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)

	// Must not panic or close anything twice.
	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)

	if hub.GetClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.GetClientCount())
	}
}

func TestHub_PublishReachesOnlySubscribers(t *testing.T) {
	hub := setupHub(t)
	subscriber := createTestClient(hub)
	bystander := createTestClient(hub)
	registerClient(hub, subscriber)
	registerClient(hub, bystander)

	hub.Join(subscriber, "DJI-001")

	hub.Publish("DJI-001", tracker.EventEntityUpdated, map[string]interface{}{"drone_id": "DJI-001"})

	msg := recvMessage(t, subscriber)
	if msg.Type != tracker.EventEntityUpdated {
		t.Errorf("expected %s, got %s", tracker.EventEntityUpdated, msg.Type)
	}
	expectNoMessage(t, bystander)
}

func TestHub_PublishToUnknownChannel(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	// No subscribers at all: publish is a silent no-op.
	hub.Publish("never-subscribed", tracker.EventEntityCreated, nil)
	expectNoMessage(t, client)
}

func TestHub_JoinDeliversCatchUpOnce(t *testing.T) {
	hub := setupHub(t)
	hub.SetCatchUpSource(&fakeCatchUp{positions: map[string]*models.DronePosition{
		"DJI-001": {DroneID: "DJI-001", Category: models.CategoryHostile, Latitude: 50.45, Longitude: 30.52},
	}})

	client := createTestClient(hub)
	registerClient(hub, client)

	hub.Join(client, "DJI-001")

	msg := recvMessage(t, client)
	if msg.Type != tracker.EventEntityCreated {
		t.Fatalf("expected catch-up type %s, got %s", tracker.EventEntityCreated, msg.Type)
	}
	rec, ok := msg.Data.(*models.DronePosition)
	if !ok {
		t.Fatalf("expected *models.DronePosition payload, got %T", msg.Data)
	}
	if rec.DroneID != "DJI-001" {
		t.Errorf("unexpected catch-up payload for %q", rec.DroneID)
	}

	// Re-joining the same channel must not repeat catch-up.
	hub.Join(client, "DJI-001")
	expectNoMessage(t, client)
}

func TestHub_JoinWithoutCachedPosition(t *testing.T) {
	hub := setupHub(t)
	hub.SetCatchUpSource(&fakeCatchUp{positions: map[string]*models.DronePosition{}})

	client := createTestClient(hub)
	registerClient(hub, client)

	hub.Join(client, "never-seen")
	expectNoMessage(t, client)

	if hub.SubscriberCount("never-seen") != 1 {
		t.Error("subscription must be recorded even without a cached position")
	}
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	hub.Join(client, "DJI-001")
	hub.Leave(client, "DJI-001")

	hub.Publish("DJI-001", tracker.EventEntityUpdated, nil)
	expectNoMessage(t, client)

	if hub.SubscriberCount("DJI-001") != 0 {
		t.Error("expected empty channel after leave")
	}
}

func TestHub_LeaveUnknownChannel(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	// Leaving a channel never joined is a no-op.
	hub.Leave(client, "never-joined")
}

func TestHub_UnregisterCleansSubscriptions(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	hub.Join(client, "DJI-001")
	hub.Join(client, "DJI-002")

	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)

	if hub.SubscriberCount("DJI-001") != 0 || hub.SubscriberCount("DJI-002") != 0 {
		t.Error("expected all channel memberships removed on disconnect")
	}

	// Publishing to the vacated channels must not panic on the closed
	// send queue.
	hub.Publish("DJI-001", tracker.EventEntityUpdated, nil)
}

func TestHub_PublishGlobalReachesAllClients(t *testing.T) {
	hub := setupHub(t)
	first := createTestClient(hub)
	second := createTestClient(hub)
	registerClient(hub, first)
	registerClient(hub, second)

	// Only first subscribes to a channel; global events ignore channels.
	hub.Join(first, "DJI-001")

	zone := &models.RestrictedZone{ID: 1, Name: "airport", CenterLat: 50.4, CenterLng: 30.5, RadiusMeters: 5000}
	hub.PublishGlobal(tracker.EventZoneCreated, zone)

	for _, client := range []*Client{first, second} {
		msg := recvMessage(t, client)
		if msg.Type != tracker.EventZoneCreated {
			t.Errorf("expected %s, got %s", tracker.EventZoneCreated, msg.Type)
		}
	}
}

func TestHub_SlowSubscriberDisconnected(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)
	hub.Join(client, "DJI-001")

	// Fill the send queue so the next publish cannot be delivered.
	for i := 0; i < cap(client.send); i++ {
		client.send <- Message{Type: "filler"}
	}

	hub.Publish("DJI-001", tracker.EventEntityUpdated, nil)

	if hub.GetClientCount() != 0 {
		t.Error("expected slow client to be disconnected")
	}
	if hub.SubscriberCount("DJI-001") != 0 {
		t.Error("expected slow client removed from its channels")
	}
}

func TestHub_RunShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)

	client := createTestClient(hub)
	registerClient(hub, client)

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after cancellation")
	}

	// Drain until the closed channel reports !ok.
	for {
		if _, ok := <-client.send; !ok {
			break
		}
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("expected 0 clients after shutdown, got %d", hub.GetClientCount())
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("expected %s, got %s", ShutdownReasonContextCanceled, got)
	}

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	<-expired.Done()
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("expected %s, got %s", ShutdownReasonContextDeadline, got)
	}
}

func TestMarshalMessage(t *testing.T) {
	data, err := MarshalMessage(Message{Type: tracker.EventEntityCreated, Data: map[string]string{"drone_id": "DJI-001"}})
	if err != nil {
		t.Fatalf("MarshalMessage: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty JSON")
	}
}
