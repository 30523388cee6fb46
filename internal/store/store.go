// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package store holds the in-memory photo collection, the single source of
// truth for both surfaces.
//
// The collection is replaced wholesale on every successful load; there are no
// partial updates. Creation and deletion round-trip through the backend and
// a subsequent full reload. A failed load keeps the existing collection
// untouched, so the worst outcome is a stale view.
package store

import (
	"context"
	"sync"

	"github.com/pindrop/pindrop/internal/logging"
	"github.com/pindrop/pindrop/internal/metrics"
	"github.com/pindrop/pindrop/internal/models"
)

// Loader fetches the full photo list. Satisfied by *diary.Client.
type Loader interface {
	GetImages(ctx context.Context) ([]models.Photo, error)
}

// Store is the photo collection. Safe for concurrent use.
//
// Loads are sequenced: each Load call takes a generation number, and a
// response belonging to an older generation than the newest one issued is
// discarded. This enforces last-initiated-wins for overlapping loads instead
// of the racy last-resolved-wins.
type Store struct {
	mu     sync.Mutex
	loader Loader
	photos []models.Photo
	issued uint64
	loaded bool
}

// New creates an empty store backed by loader.
func New(loader Loader) *Store {
	return &Store{loader: loader}
}

// Load fetches the photo list and replaces the collection on success. On
// failure the existing collection is kept and the error is returned; callers
// log it and show nothing (stale view policy).
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.mu.Unlock()

	photos, err := s.loader.GetImages(ctx)
	if err != nil {
		metrics.StoreLoadsTotal.WithLabelValues("failure").Inc()
		logging.Error().Err(err).Msg("photo load failed, keeping previous collection")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen < s.issued {
		// A newer load was initiated while this one was in flight.
		metrics.StoreLoadsTotal.WithLabelValues("stale").Inc()
		logging.Debug().Uint64("generation", gen).Uint64("newest", s.issued).
			Msg("discarding stale photo load")
		return nil
	}

	s.photos = photos
	s.loaded = true
	metrics.StoreLoadsTotal.WithLabelValues("success").Inc()
	metrics.PhotoCollectionSize.Set(float64(len(photos)))
	logging.Info().Int("count", len(photos)).Msg("photo collection replaced")
	return nil
}

// Photos returns a copy of the current collection in backend order.
func (s *Store) Photos() []models.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Photo, len(s.photos))
	copy(out, s.photos)
	return out
}

// Len returns the current photo count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.photos)
}

// Loaded reports whether any load has succeeded yet.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}
