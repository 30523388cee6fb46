// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pindrop/pindrop/internal/events"
)

// HTTPServer matches *http.Server's lifecycle methods.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService bridges http.Server's blocking ListenAndServe to suture's
// context-aware Serve: the listener runs in a goroutine, and cancellation
// triggers a bounded graceful shutdown.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps an HTTP server for supervision.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		// The run context is cancelled, so shutdown gets its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *HTTPServerService) String() string { return "http-server" }

// ContextRunner matches the hub's RunWithContext method, which already has
// the supervised-service shape.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// HubService supervises the websocket hub loop.
type HubService struct {
	hub ContextRunner
}

// NewHubService wraps the hub for supervision.
func NewHubService(hub ContextRunner) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

func (s *HubService) String() string { return "websocket-hub" }

// EventRelay matches the hub's Relay method.
type EventRelay interface {
	Relay(ctx context.Context, bus *events.Bus) error
}

// RelayService pumps collection-change events from the bus into the hub. Kept
// separate from HubService so a relay failure (a broken subscription) restarts
// the subscription without dropping connected clients.
type RelayService struct {
	relay EventRelay
	bus   *events.Bus
}

// NewRelayService wraps the hub relay for supervision.
func NewRelayService(relay EventRelay, bus *events.Bus) *RelayService {
	return &RelayService{relay: relay, bus: bus}
}

// Serve implements suture.Service.
func (s *RelayService) Serve(ctx context.Context) error {
	return s.relay.Relay(ctx, s.bus)
}

func (s *RelayService) String() string { return "event-relay" }
