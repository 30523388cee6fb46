// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package models

// Surface identifies which of the two top-level surfaces is visible.
// Exactly one surface is active at a time; the folder drill-down state is an
// independent axis tracked by GridMode.
type Surface string

const (
	SurfaceGrid Surface = "grid"
	SurfaceMap  Surface = "map"
)

// GridMode identifies what the grid surface is showing.
type GridMode string

const (
	// GridModeFolders shows one selectable card per folder group.
	GridModeFolders GridMode = "folders"

	// GridModePhotos shows individual photo cards, either a folder's contents
	// or a flat search-result list.
	GridModePhotos GridMode = "photos"
)

// FolderCard is one selectable folder entry with its photo count.
type FolderCard struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PhotoCard is one rendered photo entry. LocationLabel is empty when the
// photo's location is absent or equals the UnknownLocation sentinel.
type PhotoCard struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Caption       string `json:"caption"`
	LocationLabel string `json:"location_label,omitempty"`

	// Highlight marks the card a map popup deep-linked to. The shell scrolls
	// it into view; the flag clears from snapshots after a bounded delay.
	Highlight bool `json:"highlight,omitempty"`
}

// Popup is the carousel popup content for one map pin. It is a pure function
// of (cluster, carousel pointer): regenerating it for the same pair yields an
// identical value.
type Popup struct {
	Key string `json:"key"`

	// Title is the current photo's location label, or PopupPlaceholderTitle.
	Title string `json:"title"`

	// Counter is the human-readable "i / n" position string.
	Counter string `json:"counter"`

	Index   int    `json:"index"`
	Size    int    `json:"size"`
	PhotoID string `json:"photo_id"`
	URL     string `json:"url"`
	Folder  string `json:"folder"`
	Caption string `json:"caption"`
}

// Pin is one map marker at an exact coordinate key, carrying its popup.
type Pin struct {
	Key   string  `json:"key"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup Popup   `json:"popup"`
}

// LatLon is a bare coordinate pair used for viewport fitting.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FitBounds asks the shell to adjust the map viewport so that all points are
// visible, with fixed padding and a zoom ceiling that prevents over-zooming
// on a single pin.
type FitBounds struct {
	Points  []LatLon `json:"points"`
	Padding int      `json:"padding"`
	MaxZoom int      `json:"max_zoom"`
}

// RenderState is the full description of what the shell must draw. Every
// command against the application state returns a fresh snapshot; the shell
// re-renders the active surface from it wholesale.
type RenderState struct {
	Surface  Surface  `json:"surface"`
	GridMode GridMode `json:"grid_mode"`

	// Title is the grid page heading ("All Albums" or the open folder name).
	Title string `json:"title"`

	// BackVisible is true when the grid shows a drill-down that can return
	// to the folder list.
	BackVisible bool `json:"back_visible"`

	// Query is the current search string, "" when unfiltered.
	Query string `json:"query"`

	Folders []FolderCard `json:"folders,omitempty"`
	Photos  []PhotoCard  `json:"photos,omitempty"`
	Pins    []Pin        `json:"pins,omitempty"`

	// FitBounds is present when the map surface is active and at least one
	// geotagged photo matched.
	FitBounds *FitBounds `json:"fit_bounds,omitempty"`

	// ScrollTo carries the photo ID the shell should bring into view.
	ScrollTo string `json:"scroll_to,omitempty"`
}

// DefaultGridTitle is the heading for the folder-list view.
const DefaultGridTitle = "All Albums"
