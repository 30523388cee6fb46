// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package app owns the per-browser view state and exposes one command method
// per user action.
//
// Every command mutates the state under a single mutex and returns a fresh
// RenderState snapshot; the shell re-renders the active surface from the
// snapshot wholesale. There is no incremental diffing, full re-render per
// mutation is the policy.
package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pindrop/pindrop/internal/cluster"
	"github.com/pindrop/pindrop/internal/events"
	"github.com/pindrop/pindrop/internal/logging"
	"github.com/pindrop/pindrop/internal/models"
	"github.com/pindrop/pindrop/internal/upload"
	"github.com/pindrop/pindrop/internal/view"
)

// HighlightDuration bounds how long a deep-linked card stays distinguished.
// The deadline is checked when snapshots are taken, so expiry needs no timer.
const HighlightDuration = 2 * time.Second

// ErrUnknownSurface rejects a view toggle to a surface that does not exist.
var ErrUnknownSurface = fmt.Errorf("unknown surface")

// PhotoSource is the photo collection. Satisfied by *store.Store.
type PhotoSource interface {
	Load(ctx context.Context) error
	Photos() []models.Photo
	Len() int
}

// Deleter removes a photo on the backend. Satisfied by *diary.Client.
type Deleter interface {
	DeleteImage(ctx context.Context, id string) error
}

// Uploader runs the upload sequence. Satisfied by *upload.Controller.
type Uploader interface {
	Submit(ctx context.Context, req upload.Request) (*models.UploadResult, error)
}

// Publisher announces collection changes. Satisfied by *events.Bus.
type Publisher interface {
	PublishPhotosChanged(reason string, count int)
}

// App is the state object for one browser session.
type App struct {
	mu       sync.Mutex
	store    PhotoSource
	backend  Deleter
	uploader Uploader
	bus      Publisher
	index    *cluster.Index
	now      func() time.Time

	surface    models.Surface
	openFolder string
	query      string

	highlightID    string
	highlightUntil time.Time
}

// Option adjusts App construction.
type Option func(*App)

// WithClock replaces the wall clock, for testing highlight expiry.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New creates an App showing the folder list on the grid surface.
func New(store PhotoSource, backend Deleter, uploader Uploader, bus Publisher, opts ...Option) *App {
	a := &App{
		store:    store,
		backend:  backend,
		uploader: uploader,
		bus:      bus,
		index:    cluster.NewIndex(),
		now:      time.Now,
		surface:  models.SurfaceGrid,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the current snapshot without changing anything.
func (a *App) State() models.RenderState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

// SetView switches the active surface. Switching to the map rebuilds the pin
// set from the current matches so pins always agree with the search query.
func (a *App) SetView(surface models.Surface) (models.RenderState, error) {
	if surface != models.SurfaceGrid && surface != models.SurfaceMap {
		return models.RenderState{}, fmt.Errorf("%w: %q", ErrUnknownSurface, surface)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.surface = surface
	return a.snapshot(), nil
}

// Reset returns to the default interface: grid surface, folder list, cleared
// search.
func (a *App) Reset() models.RenderState {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.surface = models.SurfaceGrid
	a.openFolder = ""
	a.query = ""
	a.clearHighlight()
	return a.snapshot()
}

// Search applies a filter query. A non-empty query shows the flat match list
// in the grid and limits map pins to geotagged matches; the empty query
// restores the folder-list view rather than a flat everything-list.
func (a *App) Search(query string) models.RenderState {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.query = query
	a.openFolder = ""
	a.clearHighlight()
	return a.snapshot()
}

// OpenFolder drills into one folder group. The folder is read from the full
// collection, not the filtered subset, matching the card's click behavior.
func (a *App) OpenFolder(name string) models.RenderState {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.surface = models.SurfaceGrid
	a.openFolder = name
	a.clearHighlight()
	return a.snapshot()
}

// JumpToImage is the popup-image deep link: switch to the grid surface, open
// the photo's folder, and highlight the photo for a bounded time.
func (a *App) JumpToImage(folder, photoID string) models.RenderState {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.surface = models.SurfaceGrid
	a.openFolder = folder
	a.highlightID = photoID
	a.highlightUntil = a.now().Add(HighlightDuration)
	return a.snapshot()
}

// RotateCarousel advances a pin's carousel pointer by direction (+1 or -1).
// ok is false for a key with no current cluster, in which case the state is
// unchanged.
func (a *App) RotateCarousel(key string, direction int) (models.RenderState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// The mapping must be current before the key lookup; the pin the shell
	// holds may predate the last collection change.
	a.rebuildClusters()
	_, ok := a.index.Rotate(key, direction)
	return a.snapshot(), ok
}

// UploadParams carries one upload submission from the shell. Lat and Lon are
// the device fix the shell acquired; both nil means no fix was available.
type UploadParams struct {
	FileName string
	File     io.Reader
	Caption  string
	Folder   string
	Lat      *float64
	Lon      *float64

	StatusFunc func(status string)
}

// Upload runs the upload sequence and, on success, returns the result with a
// snapshot of the reloaded collection. The App mutex is not held during the
// submit; the upload controller serializes concurrent submissions itself.
func (a *App) Upload(ctx context.Context, params UploadParams) (*models.UploadResult, models.RenderState, error) {
	req := upload.Request{
		FileName:   params.FileName,
		File:       params.File,
		Caption:    params.Caption,
		Folder:     params.Folder,
		StatusFunc: params.StatusFunc,
	}
	if params.Lat != nil && params.Lon != nil {
		req.Locator = upload.StaticLocator{Lat: *params.Lat, Lon: *params.Lon}
	}

	result, err := a.uploader.Submit(ctx, req)
	if err != nil {
		return nil, a.State(), err
	}

	a.publish(events.ReasonUpload)
	return result, a.State(), nil
}

// Delete removes a photo and reloads the collection regardless of the delete
// outcome. A failed delete is logged and its detail returned alongside the
// refreshed snapshot; the reload still runs so the view reflects whatever the
// backend actually holds.
func (a *App) Delete(ctx context.Context, photoID string) (models.RenderState, error) {
	deleteErr := a.backend.DeleteImage(ctx, photoID)
	if deleteErr != nil {
		logging.Error().Err(deleteErr).Str("photo_id", photoID).Msg("delete failed")
	}

	if err := a.store.Load(ctx); err != nil {
		logging.Warn().Err(err).Msg("reload after delete failed")
	}
	a.publish(events.ReasonDelete)

	return a.State(), deleteErr
}

// Refresh reloads the collection and returns the refreshed snapshot. A failed
// load keeps the previous collection; the stale snapshot is still returned.
func (a *App) Refresh(ctx context.Context) (models.RenderState, error) {
	err := a.store.Load(ctx)
	return a.State(), err
}

// publish announces a collection change when a bus is attached.
func (a *App) publish(reason string) {
	if a.bus != nil {
		a.bus.PublishPhotosChanged(reason, a.store.Len())
	}
}

// snapshot builds the render state for the current fields. Callers hold the
// mutex.
func (a *App) snapshot() models.RenderState {
	photos := a.store.Photos()
	matches := view.Filter(photos, a.query)

	state := models.RenderState{
		Surface: a.surface,
		Query:   a.query,
		Title:   models.DefaultGridTitle,
	}

	switch {
	case a.openFolder != "":
		state.GridMode = models.GridModePhotos
		state.Title = a.openFolder
		state.BackVisible = true
		state.Photos = view.PhotoCards(view.FolderContents(photos, a.openFolder), a.activeHighlight())
		state.ScrollTo = a.activeHighlight()
	case a.query != "":
		state.GridMode = models.GridModePhotos
		state.Photos = view.PhotoCards(matches, "")
	default:
		state.GridMode = models.GridModeFolders
		state.Folders = view.FolderCards(photos)
	}

	if a.surface == models.SurfaceMap {
		geotagged := view.Geotagged(matches)
		a.index.Build(geotagged)
		state.Pins = view.Pins(a.index)
		state.FitBounds = view.Bounds(geotagged)
	}

	return state
}

// rebuildClusters refreshes the pin mapping from the current matches.
// Carousel pointers survive the rebuild for keys that persist.
func (a *App) rebuildClusters() {
	matches := view.Filter(a.store.Photos(), a.query)
	a.index.Build(view.Geotagged(matches))
}

// activeHighlight returns the highlight target, clearing it once the deadline
// passes.
func (a *App) activeHighlight() string {
	if a.highlightID != "" && a.now().After(a.highlightUntil) {
		a.clearHighlight()
	}
	return a.highlightID
}

func (a *App) clearHighlight() {
	a.highlightID = ""
	a.highlightUntil = time.Time{}
}
