// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package upload drives the photo submission sequence: acquire a device
// location with a bounded wait, reverse-geocode it, submit the multipart
// payload, and trigger a full store reload.
//
// Location acquisition and geocoding are non-fatal; the upload proceeds with
// a sentinel or coordinate label when either fails. Only one upload may be
// in flight at a time; a concurrent submit is rejected rather than queued,
// since the backend mints a fresh blob per request and cannot deduplicate a
// double-click.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/pindrop/pindrop/internal/diary"
	"github.com/pindrop/pindrop/internal/logging"
	"github.com/pindrop/pindrop/internal/models"
)

// Status lines surfaced in the shell's status area.
const (
	StatusAcquiringLocation = "Getting location..."
	StatusUploading         = "Uploading..."
	StatusComplete          = "Upload Complete!"
)

// DefaultLocationTimeout bounds the wait for a device fix.
const DefaultLocationTimeout = 5 * time.Second

var (
	// ErrUploadInFlight is returned when a submit arrives while another
	// upload is still running.
	ErrUploadInFlight = errors.New("an upload is already in flight")

	// ErrNoFile is returned when the request carries no file payload.
	ErrNoFile = errors.New("no file selected")
)

// Locator produces a device position. Acquisition that outlives the bounded
// wait is abandoned; a late fix must not resurface after the fallback path
// has proceeded.
type Locator interface {
	Locate(ctx context.Context) (lat, lon float64, err error)
}

// StaticLocator is a Locator around an already-known position, used when the
// browser shell acquired the fix itself and forwarded it.
type StaticLocator struct {
	Lat float64
	Lon float64
}

// Locate returns the stored position.
func (l StaticLocator) Locate(context.Context) (float64, float64, error) {
	return l.Lat, l.Lon, nil
}

// Labeler resolves coordinates into a display label. Satisfied by
// *geocode.Geocoder; implementations never fail, they fall back.
type Labeler interface {
	Label(ctx context.Context, lat, lon float64) string
}

// Submitter sends the multipart payload. Satisfied by *diary.Client.
type Submitter interface {
	UploadImage(ctx context.Context, up diary.UploadRequest) error
}

// Reloader refreshes the photo collection after a successful submit.
// Satisfied by *store.Store.
type Reloader interface {
	Load(ctx context.Context) error
}

// Controller sequences one upload at a time.
type Controller struct {
	geocoder        Labeler
	backend         Submitter
	store           Reloader
	locationTimeout time.Duration
	inFlight        atomic.Bool
}

// NewController creates an upload controller.
func NewController(geocoder Labeler, backend Submitter, store Reloader, locationTimeout time.Duration) *Controller {
	if locationTimeout <= 0 {
		locationTimeout = DefaultLocationTimeout
	}
	return &Controller{
		geocoder:        geocoder,
		backend:         backend,
		store:           store,
		locationTimeout: locationTimeout,
	}
}

// Request is one upload submission. Locator may be nil when no location
// source exists; StatusFunc, when set, receives progress lines for the
// shell's status area.
type Request struct {
	FileName string
	File     io.Reader
	Caption  string
	Folder   string

	Locator    Locator
	StatusFunc func(status string)
}

// Submit runs the upload sequence. On success the input-clearing result is
// returned and the store has been reloaded. On failure the error carries the
// backend's detail for the status area; there is no automatic retry.
func (c *Controller) Submit(ctx context.Context, req Request) (*models.UploadResult, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrUploadInFlight
	}
	defer c.inFlight.Store(false)

	if req.File == nil {
		return nil, ErrNoFile
	}

	status := req.StatusFunc
	if status == nil {
		status = func(string) {}
	}

	status(StatusAcquiringLocation)
	location, lat, lon := c.resolveLocation(ctx, req.Locator)

	status(StatusUploading)
	err := c.backend.UploadImage(ctx, diary.UploadRequest{
		FileName: req.FileName,
		File:     req.File,
		Caption:  req.Caption,
		Folder:   req.Folder,
		Location: location,
		Lat:      lat,
		Lon:      lon,
	})
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	// Refresh the collection; a failed reload leaves a stale view but the
	// upload itself succeeded.
	if err := c.store.Load(ctx); err != nil {
		logging.Warn().Err(err).Msg("reload after upload failed")
	}

	status(StatusComplete)
	return &models.UploadResult{
		Status:      StatusComplete,
		Location:    location,
		ClearInputs: true,
	}, nil
}

// resolveLocation acquires a position and turns it into a label. Returns
// the sentinel label and nil coordinates when no fix is available.
func (c *Controller) resolveLocation(ctx context.Context, locator Locator) (string, *float64, *float64) {
	if locator == nil {
		return models.ManualUploadLocation, nil, nil
	}

	lat, lon, err := c.acquire(ctx, locator)
	if err != nil {
		logging.Info().Err(err).Msg("device location unavailable, submitting without coordinates")
		return models.ManualUploadLocation, nil, nil
	}

	return c.geocoder.Label(ctx, lat, lon), &lat, &lon
}

// fix is a completed location acquisition.
type fix struct {
	lat, lon float64
	err      error
}

// acquire waits for a device fix, bounded by the location timeout. A fix
// arriving after the timeout is dropped: the buffered channel absorbs it and
// nothing reads the result, so the fallback path cannot be overridden late.
func (c *Controller) acquire(ctx context.Context, locator Locator) (float64, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.locationTimeout)
	defer cancel()

	ch := make(chan fix, 1)
	go func() {
		lat, lon, err := locator.Locate(ctx)
		ch <- fix{lat: lat, lon: lon, err: err}
	}()

	select {
	case f := <-ch:
		if f.err != nil {
			return 0, 0, f.err
		}
		return f.lat, f.lon, nil
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("location acquisition timed out: %w", ctx.Err())
	}
}
