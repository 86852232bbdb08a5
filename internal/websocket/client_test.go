// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skywatch-io/skywatch/internal/models"
	"github.com/skywatch-io/skywatch/internal/tracker"
)

// setupWebSocketServer creates a test WebSocket server with a custom handler
func setupWebSocketServer(t *testing.T, handler func(t *testing.T, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()
		handler(t, conn)
	}))
}

// dialWebSocket establishes a WebSocket connection to the test server
func dialWebSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	return conn
}

// waitForChannel waits for a channel signal with timeout
func waitForChannel(t *testing.T, ch <-chan bool, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Errorf("%s: timeout after %v", msg, timeout)
	}
}

func TestNewClient(t *testing.T) {
	hub := NewHub()

	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)

	if client == nil {
		t.Fatal("NewClient returned nil")
	}
	if client.hub != hub {
		t.Error("Client hub not set correctly")
	}
	if client.conn != conn {
		t.Error("Client connection not set correctly")
	}
	if client.send == nil {
		t.Error("Client send channel not initialized")
	}
	if cap(client.send) != 256 {
		t.Errorf("Expected send channel capacity 256, got %d", cap(client.send))
	}
}

func TestClient_IDs_Monotonic(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil)
	b := NewClient(hub, nil)

	if b.ID() <= a.ID() {
		t.Errorf("expected increasing client IDs, got %d then %d", a.ID(), b.ID())
	}
}

func TestClient_TrySend(t *testing.T) {
	client := NewClient(NewHub(), nil)

	if !client.TrySend(Message{Type: "test"}) {
		t.Error("expected TrySend to succeed with empty queue")
	}

	for i := 0; i < cap(client.send); i++ {
		client.TrySend(Message{Type: "filler"})
	}
	if client.TrySend(Message{Type: "overflow"}) {
		t.Error("expected TrySend to fail on full queue")
	}

	client.closeSend()
	if client.TrySend(Message{Type: "after-close"}) {
		t.Error("expected TrySend to fail on closed client")
	}
}

// Even with a full send queue, a TrySend racing the hub's close of the
// send channel must never hit the closed channel.
func TestClient_TrySend_RacesClose(t *testing.T) {
	for i := 0; i < 1000; i++ {
		client := NewClient(NewHub(), nil)
		for j := 0; j < cap(client.send); j++ {
			client.TrySend(Message{Type: "filler"})
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 8; j++ {
				client.TrySend(Message{Type: "racer"})
			}
		}()
		client.closeSend()
		<-done

		if client.TrySend(Message{Type: "after"}) {
			t.Fatal("expected TrySend to fail after close")
		}
	}
}

func TestClient_CloseSend_Idempotent(t *testing.T) {
	client := NewClient(NewHub(), nil)
	client.closeSend()
	client.closeSend()

	if _, ok := <-client.send; ok {
		t.Error("expected send channel to be closed")
	}
}

func TestClient_WritePump_SendMessage(t *testing.T) {
	hub := NewHub()

	messageReceived := make(chan bool, 1)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("Failed to read message: %v", err)
			return
		}
		if msg.Type != tracker.EventEntityUpdated {
			t.Errorf("Expected message type %q, got %q", tracker.EventEntityUpdated, msg.Type)
		}
		messageReceived <- true
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	go client.writePump()

	client.send <- Message{Type: tracker.EventEntityUpdated, Data: map[string]string{"drone_id": "DJI-001"}}

	waitForChannel(t, messageReceived, time.Second, "Message not received")
}

func TestClient_ReadPump_PingPong(t *testing.T) {
	hub := setupHub(t)

	receivedPong := make(chan bool, 1)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		if err := conn.WriteJSON(clientCommand{Type: MessageTypePing}); err != nil {
			t.Errorf("Failed to write ping: %v", err)
			return
		}

		var pongMsg Message
		if err := conn.ReadJSON(&pongMsg); err != nil {
			t.Errorf("Failed to read pong: %v", err)
			return
		}
		if pongMsg.Type == MessageTypePong {
			receivedPong <- true
		}
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	hub.Register <- client
	client.Start()

	waitForChannel(t, receivedPong, time.Second, "Pong not received")
}

func TestClient_SubscribeFlow(t *testing.T) {
	hub := setupHub(t)
	hub.SetCatchUpSource(&fakeCatchUp{positions: map[string]*models.DronePosition{
		"DJI-001": {DroneID: "DJI-001", Category: models.CategoryHostile, Latitude: 50.45, Longitude: 30.52},
	}})

	gotCatchUp := make(chan bool, 1)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		if err := conn.WriteJSON(clientCommand{Type: MessageTypeSubscribe, DroneID: "DJI-001"}); err != nil {
			t.Errorf("Failed to write subscribe: %v", err)
			return
		}

		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("Failed to read catch-up: %v", err)
			return
		}
		if msg.Type == tracker.EventEntityCreated {
			gotCatchUp <- true
		}
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	hub.Register <- client
	client.Start()

	waitForChannel(t, gotCatchUp, time.Second, "Catch-up not received")

	if hub.SubscriberCount("DJI-001") != 1 {
		t.Errorf("expected 1 subscriber, got %d", hub.SubscriberCount("DJI-001"))
	}
}

func TestClient_UnsubscribeFlow(t *testing.T) {
	hub := setupHub(t)

	done := make(chan bool, 1)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		if err := conn.WriteJSON(clientCommand{Type: MessageTypeSubscribe, DroneID: "DJI-001"}); err != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
		if err := conn.WriteJSON(clientCommand{Type: MessageTypeUnsubscribe, DroneID: "DJI-001"}); err != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
		done <- true
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	hub.Register <- client
	client.Start()

	waitForChannel(t, done, time.Second, "Unsubscribe flow did not complete")

	if hub.SubscriberCount("DJI-001") != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", hub.SubscriberCount("DJI-001"))
	}
}

func TestClient_MalformedMessageIgnored(t *testing.T) {
	hub := setupHub(t)

	done := make(chan bool, 1)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
			return
		}
		// Connection must survive the malformed message.
		if err := conn.WriteJSON(clientCommand{Type: MessageTypePing}); err != nil {
			return
		}
		var pong Message
		if err := conn.ReadJSON(&pong); err != nil {
			t.Errorf("connection dropped after malformed message: %v", err)
			return
		}
		done <- true
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	hub.Register <- client
	client.Start()

	waitForChannel(t, done, time.Second, "Client did not survive malformed message")
}

func TestClient_ReadPump_ConnectionClose(t *testing.T) {
	hub := setupHub(t)

	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		time.Sleep(50 * time.Millisecond)
		conn.Close()
	})
	defer server.Close()

	conn := dialWebSocket(t, server)

	client := NewClient(hub, conn)
	hub.Register <- client
	client.Start()

	// The read pump must unregister the client when the peer closes.
	deadline := time.After(time.Second)
	for hub.GetClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("client not unregistered after connection close")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
