// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package ws pushes refresh hints to connected browsers.
//
// The hub never pushes photo data over the socket. A collection change
// produces a small "refresh" message; the browser answers it with a normal
// state fetch over HTTP, so the socket carries hints only and a dropped
// message costs nothing but staleness.
package ws

import (
	"context"
	"sort"
	"sync"

	"github.com/pindrop/pindrop/internal/events"
	"github.com/pindrop/pindrop/internal/logging"
	"github.com/pindrop/pindrop/internal/metrics"
)

// Message types exchanged with the browser shell.
const (
	MessageTypeRefresh = "refresh"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
)

// Message is one websocket frame payload.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub maintains the set of connected browsers and fans refresh hints out to
// them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub loop until ctx is cancelled, then closes all
// clients and returns ctx.Err(). Designed for supervised operation.
//
// Lifecycle events are drained before broadcasts so client state is settled
// when a message fans out; Go's select picks randomly between ready channels
// otherwise.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// Relay subscribes to collection-change events and broadcasts a refresh hint
// for each one. Blocks until ctx is cancelled.
func (h *Hub) Relay(ctx context.Context, bus *events.Bus) error {
	changes, err := bus.SubscribePhotosChanged(ctx)
	if err != nil {
		return err
	}
	for event := range changes {
		h.BroadcastRefresh(event)
	}
	return ctx.Err()
}

// BroadcastRefresh tells every connected browser to refetch its view state.
// Drops the hint when the broadcast channel is full.
func (h *Hub) BroadcastRefresh(event events.PhotosChanged) {
	select {
	case h.broadcast <- Message{Type: MessageTypeRefresh, Data: event}:
		metrics.WSRefreshHintsSent.Inc()
	default:
		logging.Warn().Msg("broadcast channel full, dropping refresh hint")
	}
}

// ClientCount returns the number of connected browsers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients fans a message out in client ID order. A client whose
// send buffer is full is dropped; it reconnects rather than stalling the hub.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

// shutdown closes every client. Context cancellation is the normal stop path
// and is not logged as an error.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	count := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	metrics.WSConnections.Set(0)

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}
