// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package models defines the photo record consumed from the diary backend and
// the render models handed to the browser shell.
package models

import "strconv"

// Sentinel values shared across the view pipeline.
const (
	// UnsortedFolder is the folder group for photos with no folder label.
	UnsortedFolder = "Unsorted"

	// UnknownLocation is the backend's placeholder for an upload that carried
	// no usable location. Cards suppress the location line entirely when the
	// label equals this sentinel.
	UnknownLocation = "Unknown Location"

	// ManualUploadLocation is submitted when device location could not be
	// acquired at all.
	ManualUploadLocation = "Manual Upload"

	// PopupPlaceholderTitle is shown in a map popup when the photo has no
	// location label.
	PopupPlaceholderTitle = "Memory"
)

// Photo is a single diary record as returned by the backend. The client never
// mutates a photo; creation and deletion round-trip through the backend
// followed by a full reload.
type Photo struct {
	// ID is the opaque unique identifier assigned by the backend.
	ID string `json:"id"`

	// URL locates the stored image.
	URL string `json:"url"`

	// Caption is optional free text.
	Caption string `json:"caption,omitempty"`

	// Folder is an optional free-text grouping label. Empty means Unsorted.
	Folder string `json:"folder,omitempty"`

	// Location is an optional human-readable location label.
	Location string `json:"location,omitempty"`

	// Lat and Lon are optional coordinates. Both present or both absent;
	// a photo is geotagged only when both are non-nil.
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// FolderName returns the folder group this photo belongs to, substituting
// UnsortedFolder for an absent or empty label.
func (p *Photo) FolderName() string {
	if p.Folder == "" {
		return UnsortedFolder
	}
	return p.Folder
}

// Geotagged reports whether both coordinates are present.
func (p *Photo) Geotagged() bool {
	return p.Lat != nil && p.Lon != nil
}

// ClusterKey returns the exact-match spatial key "lat,lon" for a geotagged
// photo, or "" otherwise. Two photos share a map pin iff their keys are
// identical strings; there is no proximity tolerance.
func (p *Photo) ClusterKey() string {
	if !p.Geotagged() {
		return ""
	}
	return FormatCoord(*p.Lat) + "," + FormatCoord(*p.Lon)
}

// FormatCoord renders a coordinate with the shortest exact decimal form, so
// that equal float values always produce equal key fragments.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Coord returns a pointer to v. Convenience for building geotagged photos.
func Coord(v float64) *float64 {
	return &v
}
