// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pindrop/pindrop/internal/events"
	"github.com/pindrop/pindrop/internal/models"
	"github.com/pindrop/pindrop/internal/upload"
)

type fakeSource struct {
	mu     sync.Mutex
	photos []models.Photo
	loads  int
	err    error
}

func (f *fakeSource) Load(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.err
}

func (f *fakeSource) Photos() []models.Photo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Photo, len(f.photos))
	copy(out, f.photos)
	return out
}

func (f *fakeSource) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.photos)
}

func (f *fakeSource) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

type fakeDeleter struct {
	deleted []string
	err     error
}

func (f *fakeDeleter) DeleteImage(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

type fakeUploader struct {
	requests []upload.Request
	err      error
}

func (f *fakeUploader) Submit(_ context.Context, req upload.Request) (*models.UploadResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &models.UploadResult{Status: upload.StatusComplete, ClearInputs: true}, nil
}

type fakeBus struct {
	mu      sync.Mutex
	reasons []string
}

func (f *fakeBus) PublishPhotosChanged(reason string, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
}

func (f *fakeBus) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reasons...)
}

// travelPhotos is the shared fixture: two photos at the same Paris spot, one
// Tokyo photo without coordinates.
func travelPhotos() []models.Photo {
	return []models.Photo{
		{ID: "1", Folder: "Paris", Caption: "tower", Lat: models.Coord(48.85), Lon: models.Coord(2.35)},
		{ID: "2", Folder: "Paris", Caption: "louvre", Lat: models.Coord(48.85), Lon: models.Coord(2.35)},
		{ID: "3", Folder: "Tokyo", Caption: "shibuya"},
	}
}

func newTestApp(photos []models.Photo) (*App, *fakeSource, *fakeDeleter, *fakeUploader, *fakeBus) {
	src := &fakeSource{photos: photos}
	del := &fakeDeleter{}
	up := &fakeUploader{}
	bus := &fakeBus{}
	return New(src, del, up, bus), src, del, up, bus
}

func TestInitialStateShowsFolderList(t *testing.T) {
	a, _, _, _, _ := newTestApp(travelPhotos())

	state := a.State()
	if state.Surface != models.SurfaceGrid || state.GridMode != models.GridModeFolders {
		t.Fatalf("state = %+v", state)
	}
	if state.Title != models.DefaultGridTitle || state.BackVisible {
		t.Errorf("title = %q back = %v", state.Title, state.BackVisible)
	}
	if len(state.Folders) != 2 {
		t.Fatalf("folders = %+v", state.Folders)
	}
	if state.Folders[0].Name != "Paris" || state.Folders[0].Count != 2 {
		t.Errorf("first folder = %+v", state.Folders[0])
	}
	if state.Folders[1].Name != "Tokyo" || state.Folders[1].Count != 1 {
		t.Errorf("second folder = %+v", state.Folders[1])
	}
}

func TestMapSurfaceShowsOnePinWithCarousel(t *testing.T) {
	a, _, _, _, _ := newTestApp(travelPhotos())

	state, err := a.SetView(models.SurfaceMap)
	if err != nil {
		t.Fatalf("SetView: %v", err)
	}
	if len(state.Pins) != 1 {
		t.Fatalf("pins = %+v", state.Pins)
	}
	if got := state.Pins[0].Popup.Counter; got != "1 / 2" {
		t.Errorf("counter = %q, want %q", got, "1 / 2")
	}
	if state.FitBounds == nil || len(state.FitBounds.Points) != 2 {
		t.Errorf("fit bounds = %+v", state.FitBounds)
	}
}

func TestRotateAdvancesAndWraps(t *testing.T) {
	a, _, _, _, _ := newTestApp(travelPhotos())
	state, _ := a.SetView(models.SurfaceMap)
	key := state.Pins[0].Key

	state, ok := a.RotateCarousel(key, 1)
	if !ok || state.Pins[0].Popup.Counter != "2 / 2" {
		t.Fatalf("after first rotate: ok=%v counter=%q", ok, state.Pins[0].Popup.Counter)
	}

	state, ok = a.RotateCarousel(key, 1)
	if !ok || state.Pins[0].Popup.Counter != "1 / 2" {
		t.Fatalf("after wrap: ok=%v counter=%q", ok, state.Pins[0].Popup.Counter)
	}
}

func TestRotateUnknownKeyIsNoOp(t *testing.T) {
	a, _, _, _, _ := newTestApp(travelPhotos())
	a.SetView(models.SurfaceMap)

	if _, ok := a.RotateCarousel("59.33,18.07", 1); ok {
		t.Error("rotate on unknown key reported ok")
	}
}

func TestSearchShowsFlatMatchesAndFiltersPins(t *testing.T) {
	a, _, _, _, _ := newTestApp(travelPhotos())
	a.SetView(models.SurfaceMap)

	state := a.Search("tokyo")
	if state.GridMode != models.GridModePhotos {
		t.Fatalf("grid mode = %q", state.GridMode)
	}
	if len(state.Photos) != 1 || state.Photos[0].ID != "3" {
		t.Errorf("photos = %+v", state.Photos)
	}
	if len(state.Pins) != 0 {
		t.Errorf("pins = %+v, want none (match has no coordinates)", state.Pins)
	}
	if state.FitBounds != nil {
		t.Error("fit bounds present with no geotagged matches")
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	a, _, _, _, _ := newTestApp(travelPhotos())

	lower := a.Search("paris")
	upper := a.Search("PARIS")
	if len(lower.Photos) != 2 || len(upper.Photos) != 2 {
		t.Errorf("matches: lower=%d upper=%d, want 2 each", len(lower.Photos), len(upper.Photos))
	}
}

func TestEmptyQueryRestoresFolderList(t *testing.T) {
	a, _, _, _, _ := newTestApp(travelPhotos())
	a.Search("paris")

	state := a.Search("")
	if state.GridMode != models.GridModeFolders || len(state.Folders) != 2 {
		t.Errorf("state after empty query = %+v", state)
	}
}

func TestOpenFolderShowsContents(t *testing.T) {
	a, _, _, _, _ := newTestApp(travelPhotos())

	state := a.OpenFolder("Paris")
	if state.Title != "Paris" || !state.BackVisible {
		t.Errorf("title=%q back=%v", state.Title, state.BackVisible)
	}
	if len(state.Photos) != 2 {
		t.Errorf("photos = %+v", state.Photos)
	}
}

func TestJumpToImageHighlightsAndExpires(t *testing.T) {
	current := time.Unix(1000, 0)
	src := &fakeSource{photos: travelPhotos()}
	a := New(src, &fakeDeleter{}, &fakeUploader{}, nil, WithClock(func() time.Time { return current }))

	state := a.JumpToImage("Paris", "2")
	if state.Surface != models.SurfaceGrid || state.Title != "Paris" {
		t.Fatalf("state = %+v", state)
	}
	if state.ScrollTo != "2" {
		t.Errorf("scroll target = %q", state.ScrollTo)
	}
	var highlighted string
	for _, card := range state.Photos {
		if card.Highlight {
			highlighted = card.ID
		}
	}
	if highlighted != "2" {
		t.Errorf("highlighted card = %q", highlighted)
	}

	// Within the window the highlight persists across snapshots.
	current = current.Add(time.Second)
	state = a.State()
	if state.ScrollTo != "2" {
		t.Error("highlight dropped before its deadline")
	}

	// Past the deadline it clears.
	current = current.Add(2 * time.Second)
	state = a.State()
	if state.ScrollTo != "" {
		t.Error("highlight survived its deadline")
	}
	for _, card := range state.Photos {
		if card.Highlight {
			t.Errorf("card %s still highlighted", card.ID)
		}
	}
}

func TestResetClearsEverything(t *testing.T) {
	a, _, _, _, _ := newTestApp(travelPhotos())
	a.Search("paris")
	a.SetView(models.SurfaceMap)

	state := a.Reset()
	if state.Surface != models.SurfaceGrid || state.GridMode != models.GridModeFolders {
		t.Errorf("state = %+v", state)
	}
	if state.Query != "" || state.Title != models.DefaultGridTitle {
		t.Errorf("query=%q title=%q", state.Query, state.Title)
	}
}

func TestSetViewRejectsUnknownSurface(t *testing.T) {
	a, _, _, _, _ := newTestApp(nil)

	if _, err := a.SetView("carousel"); !errors.Is(err, ErrUnknownSurface) {
		t.Errorf("err = %v, want ErrUnknownSurface", err)
	}
}

func TestUploadPublishesAndReturnsResult(t *testing.T) {
	a, _, _, up, bus := newTestApp(travelPhotos())

	result, _, err := a.Upload(context.Background(), UploadParams{
		FileName: "pic.jpg",
		File:     strings.NewReader("data"),
		Folder:   "Paris",
		Lat:      models.Coord(48.85),
		Lon:      models.Coord(2.35),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !result.ClearInputs {
		t.Errorf("result = %+v", result)
	}
	if len(up.requests) != 1 || up.requests[0].Locator == nil {
		t.Errorf("requests = %+v", up.requests)
	}
	if got := bus.published(); len(got) != 1 || got[0] != events.ReasonUpload {
		t.Errorf("published = %v", got)
	}
}

func TestUploadFailureDoesNotPublish(t *testing.T) {
	src := &fakeSource{photos: travelPhotos()}
	up := &fakeUploader{err: errors.New("backend rejected")}
	bus := &fakeBus{}
	a := New(src, &fakeDeleter{}, up, bus)

	_, _, err := a.Upload(context.Background(), UploadParams{
		FileName: "pic.jpg",
		File:     strings.NewReader("data"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(bus.published()) != 0 {
		t.Errorf("published = %v", bus.published())
	}
}

func TestDeleteReloadsEvenOnFailure(t *testing.T) {
	src := &fakeSource{photos: travelPhotos()}
	del := &fakeDeleter{err: errors.New("not found")}
	bus := &fakeBus{}
	a := New(src, del, &fakeUploader{}, bus)

	_, err := a.Delete(context.Background(), "1")
	if err == nil {
		t.Fatal("delete error not surfaced")
	}
	if src.loadCount() != 1 {
		t.Errorf("loads = %d, want 1 (reload regardless of outcome)", src.loadCount())
	}
	if got := bus.published(); len(got) != 1 || got[0] != events.ReasonDelete {
		t.Errorf("published = %v", got)
	}
}

func TestCarouselPointerSurvivesCollectionReload(t *testing.T) {
	a, src, _, _, _ := newTestApp(travelPhotos())
	state, _ := a.SetView(models.SurfaceMap)
	key := state.Pins[0].Key

	a.RotateCarousel(key, 1)

	// A reload rebuilds the cluster mapping with the same keys.
	src.mu.Lock()
	src.photos = travelPhotos()
	src.mu.Unlock()
	state, _ = a.Refresh(context.Background())

	if got := state.Pins[0].Popup.Counter; got != "2 / 2" {
		t.Errorf("counter after reload = %q, want pointer preserved at %q", got, "2 / 2")
	}
}
