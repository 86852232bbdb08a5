// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/skywatch-io/skywatch/internal/logging"
	"github.com/skywatch-io/skywatch/internal/metrics"
	"github.com/skywatch-io/skywatch/internal/models"
	"github.com/skywatch-io/skywatch/internal/tracker"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Control message types exchanged with clients. Event messages carry the
// tracker event names (entity-created, zone-updated, ...) as their type.
const (
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message is the wire envelope for everything the hub sends.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// CatchUpSource provides the last cached position for a drone ID, used
// to serve a freshly subscribed client before any live event arrives.
// Implemented by *tracker.Tracker.
type CatchUpSource interface {
	LastPosition(droneID string) (*models.DronePosition, bool)
}

// Hub maintains the set of active clients and their channel
// subscriptions. A channel is named by drone ID; global events bypass
// channels and go to every client.
type Hub struct {
	clients map[*Client]bool

	// channels maps drone ID to its subscriber set, subscriptions is
	// the reverse index used for cleanup on disconnect.
	channels      map[string]map[*Client]struct{}
	subscriptions map[*Client]map[string]struct{}

	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client

	catchUp CatchUpSource
	mu      sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		channels:      make(map[string]map[*Client]struct{}),
		subscriptions: make(map[*Client]map[string]struct{}),
		broadcast:     make(chan Message, 256),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
	}
}

// SetCatchUpSource wires the last-position lookup used for catch-up on
// subscribe. Called once during startup, before any client connects;
// the hub and the tracker reference each other, so one side is wired
// after construction.
func (h *Hub) SetCatchUpSource(src CatchUpSource) {
	h.catchUp = src
}

// Run starts the hub and blocks until the context is canceled. Designed
// for suture supervision: on cancellation all clients are closed and
// ctx.Err() is returned so the supervisor sees a clean stop.
//
// DETERMINISM: uses priority-based selection because Go's select picks
// randomly among ready channels:
//   - Priority 1: context cancellation (shutdown)
//   - Priority 2: client lifecycle events (Register/Unregister)
//   - Priority 3: global broadcast messages
//
// Client state is therefore always consistent before messages are
// processed.
func (h *Hub) Run(ctx context.Context) error {
	for {
		// Priority 1: check for shutdown (non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.registerClient(client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
		}

		// Priority 3: block until any event arrives
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToAll(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		h.removeClientLocked(client)
	}
	total := len(h.clients)
	h.mu.Unlock()

	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// removeClientLocked deletes the client from the client set and every
// channel it joined, then closes its send queue. Callers hold h.mu.
// Safe to call more than once for the same client.
func (h *Hub) removeClientLocked(client *Client) {
	delete(h.clients, client)

	if subs, ok := h.subscriptions[client]; ok {
		for name := range subs {
			if set := h.channels[name]; set != nil {
				delete(set, client)
				if len(set) == 0 {
					delete(h.channels, name)
				}
			}
		}
		metrics.WSSubscriptions.Sub(float64(len(subs)))
		delete(h.subscriptions, client)
	}

	client.closeSend()
	metrics.WSClients.Set(float64(len(h.clients)))
}

// Join subscribes a client to a drone channel and delivers the last
// cached position, if any, exactly once. Joining a channel the client
// already subscribes to is a no-op and does not repeat catch-up.
func (h *Hub) Join(client *Client, channel string) {
	if channel == "" || client.closed.Load() {
		return
	}

	h.mu.Lock()
	if _, ok := h.subscriptions[client][channel]; ok {
		h.mu.Unlock()
		return
	}
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][client] = struct{}{}
	if h.subscriptions[client] == nil {
		h.subscriptions[client] = make(map[string]struct{})
	}
	h.subscriptions[client][channel] = struct{}{}
	h.mu.Unlock()

	metrics.WSSubscriptions.Inc()
	logging.Debug().Str("channel", channel).Uint64("client_id", client.ID()).Msg("client subscribed")

	if h.catchUp == nil {
		return
	}
	if rec, ok := h.catchUp.LastPosition(channel); ok {
		// The subscriber has no prior state for this drone, so the
		// snapshot is delivered as a creation.
		client.TrySend(Message{Type: tracker.EventEntityCreated, Data: rec})
	}
}

// Leave unsubscribes a client from one channel. Unknown channels are a
// no-op.
func (h *Hub) Leave(client *Client, channel string) {
	h.mu.Lock()
	subs, ok := h.subscriptions[client]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := subs[channel]; !ok {
		h.mu.Unlock()
		return
	}
	delete(subs, channel)
	if set := h.channels[channel]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.channels, channel)
		}
	}
	h.mu.Unlock()

	metrics.WSSubscriptions.Dec()
	logging.Debug().Str("channel", channel).Uint64("client_id", client.ID()).Msg("client unsubscribed")
}

// Publish delivers an event to the subscribers of one drone channel.
// Implements tracker.EventPublisher. A subscriber whose send queue is
// full is disconnected so a stalled reader cannot back up the hub.
//
// DETERMINISM: targets are sorted by client ID so delivery order is
// reproducible.
func (h *Hub) Publish(droneID, event string, payload interface{}) {
	message := Message{Type: event, Data: payload}

	h.mu.Lock()
	set := h.channels[droneID]
	targets := make([]*Client, 0, len(set))
	for client := range set {
		targets = append(targets, client)
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].id < targets[j].id
	})

	var toRemove []*Client
	for _, client := range targets {
		select {
		case client.send <- message:
			metrics.WSEventsDelivered.WithLabelValues(event).Inc()
		default:
			metrics.WSEventsDropped.Inc()
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		h.removeClientLocked(client)
	}
	h.mu.Unlock()

	if len(toRemove) > 0 {
		logging.Warn().
			Str("channel", droneID).
			Int("disconnected", len(toRemove)).
			Msg("dropped slow subscribers during publish")
	}
}

// PublishGlobal queues an event for every connected client regardless of
// subscriptions. Used for restricted zone changes. When the broadcast
// queue is full the event is dropped with a warning; zone state is
// recoverable over HTTP.
func (h *Hub) PublishGlobal(event string, payload interface{}) {
	select {
	case h.broadcast <- Message{Type: event, Data: payload}:
	default:
		metrics.WSEventsDropped.Inc()
		logging.Warn().Str("event", event).Msg("broadcast queue full, dropping global event")
	}
}

// broadcastToAll fans a message out to every client in ID order,
// removing any whose queue is full.
func (h *Hub) broadcastToAll(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSEventsDelivered.WithLabelValues(message.Type).Inc()
		default:
			metrics.WSEventsDropped.Inc()
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		h.removeClientLocked(client)
	}
}

// logGracefulShutdown closes all clients and logs the stop. The context
// error is not logged as an error field because cancellation is the
// expected shutdown path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		h.removeClientLocked(client)
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns the number of clients subscribed to a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
