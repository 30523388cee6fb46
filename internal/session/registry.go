// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package session

import (
	"sync"
	"time"

	"github.com/pindrop/pindrop/internal/cache"
	"github.com/pindrop/pindrop/internal/logging"
	"github.com/pindrop/pindrop/internal/metrics"
)

// DefaultStateTTL evicts idle browser state. Eviction only loses view state
// (open folder, carousel positions); the photo collection reloads from the
// backend on the next visit.
const DefaultStateTTL = 12 * time.Hour

// Registry maps session IDs to per-browser state objects, creating them on
// first use and evicting them after idle TTL.
type Registry[T any] struct {
	mu      sync.Mutex
	states  *cache.Cache
	factory func() T
}

// NewRegistry creates a registry. factory builds the state object for a
// session seen for the first time (or one whose state was evicted).
func NewRegistry[T any](ttl time.Duration, factory func() T) *Registry[T] {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &Registry[T]{
		states:  cache.New(ttl),
		factory: factory,
	}
}

// Acquire returns the state for sessionID, creating it when absent. Each
// acquisition refreshes the idle TTL.
func (r *Registry[T]) Acquire(sessionID string) T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.states.Get(sessionID); ok {
		state := v.(T)
		r.states.Set(sessionID, state)
		return state
	}

	state := r.factory()
	r.states.Set(sessionID, state)
	metrics.ActiveSessions.Set(float64(r.states.Len()))
	logging.Debug().Str("session_id", sessionID).Msg("created browser state")
	return state
}

// Remove drops the state for sessionID.
func (r *Registry[T]) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states.Delete(sessionID)
	metrics.ActiveSessions.Set(float64(r.states.Len()))
}

// Len returns the number of live state objects.
func (r *Registry[T]) Len() int {
	return r.states.Len()
}

// Close stops the underlying cache's sweep goroutine.
func (r *Registry[T]) Close() {
	r.states.Close()
}
