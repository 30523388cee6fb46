// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package view builds render models from photo lists. Everything here is a
// pure function: the same input list always yields the same cards, pins, and
// bounds, which keeps the full-re-render-per-mutation policy cheap to reason
// about.
package view

import (
	"fmt"
	"strings"

	"github.com/pindrop/pindrop/internal/cluster"
	"github.com/pindrop/pindrop/internal/models"
)

// Viewport fitting constants: fixed padding around the pin bounds and a zoom
// ceiling so a single pin does not over-zoom.
const (
	FitPadding = 50
	FitMaxZoom = 15
)

// FolderCards groups photos by folder and returns one card per distinct
// folder name with its count, in first-seen order. Every photo lands in
// exactly one group; absent folders substitute the Unsorted group.
func FolderCards(photos []models.Photo) []models.FolderCard {
	counts := make(map[string]int, len(photos))
	order := make([]string, 0, len(photos))

	for i := range photos {
		name := photos[i].FolderName()
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	cards := make([]models.FolderCard, 0, len(order))
	for _, name := range order {
		cards = append(cards, models.FolderCard{Name: name, Count: counts[name]})
	}
	return cards
}

// FolderContents returns the photos whose folder group equals name, in input
// order.
func FolderContents(photos []models.Photo, name string) []models.Photo {
	out := make([]models.Photo, 0, len(photos))
	for i := range photos {
		if photos[i].FolderName() == name {
			out = append(out, photos[i])
		}
	}
	return out
}

// PhotoCards renders one card per photo. The card matching highlightID is
// flagged for the shell to distinguish and scroll to; pass "" for no
// highlight.
func PhotoCards(photos []models.Photo, highlightID string) []models.PhotoCard {
	cards := make([]models.PhotoCard, 0, len(photos))
	for i := range photos {
		p := &photos[i]
		cards = append(cards, models.PhotoCard{
			ID:            p.ID,
			URL:           p.URL,
			Caption:       p.Caption,
			LocationLabel: locationLabel(p),
			Highlight:     highlightID != "" && p.ID == highlightID,
		})
	}
	return cards
}

// locationLabel returns the display label, suppressed entirely when the
// location is absent or is the backend's UnknownLocation sentinel.
func locationLabel(p *models.Photo) string {
	if p.Location == "" || p.Location == models.UnknownLocation {
		return ""
	}
	return p.Location
}

// Filter returns the photos matching query: a case-insensitive substring
// match against caption, folder, and location, any one field sufficing.
// An empty query matches everything.
func Filter(photos []models.Photo, query string) []models.Photo {
	q := strings.ToLower(query)
	out := make([]models.Photo, 0, len(photos))
	for i := range photos {
		if matches(&photos[i], q) {
			out = append(out, photos[i])
		}
	}
	return out
}

// matches checks one photo against an already-lowercased query.
func matches(p *models.Photo, q string) bool {
	return strings.Contains(strings.ToLower(p.Caption), q) ||
		strings.Contains(strings.ToLower(p.Folder), q) ||
		strings.Contains(strings.ToLower(p.Location), q)
}

// Geotagged returns the subset of photos carrying both coordinates.
func Geotagged(photos []models.Photo) []models.Photo {
	out := make([]models.Photo, 0, len(photos))
	for i := range photos {
		if photos[i].Geotagged() {
			out = append(out, photos[i])
		}
	}
	return out
}

// Pins renders one pin per cluster in the index, each carrying the popup for
// its current carousel pointer.
func Pins(ix *cluster.Index) []models.Pin {
	clusters := ix.Clusters()
	pins := make([]models.Pin, 0, len(clusters))
	for _, c := range clusters {
		idx, ok := ix.Current(c.Key)
		if !ok {
			continue
		}
		pins = append(pins, models.Pin{
			Key:   c.Key,
			Lat:   c.Lat,
			Lon:   c.Lon,
			Popup: PopupFor(c, idx),
		})
	}
	return pins
}

// PopupFor builds the carousel popup for a cluster at a given pointer.
// Idempotent for a fixed (cluster, index) pair.
func PopupFor(c *cluster.Cluster, idx int) models.Popup {
	p := &c.Photos[idx]

	title := p.Location
	if title == "" {
		title = models.PopupPlaceholderTitle
	}

	return models.Popup{
		Key:     c.Key,
		Title:   title,
		Counter: fmt.Sprintf("%d / %d", idx+1, len(c.Photos)),
		Index:   idx,
		Size:    len(c.Photos),
		PhotoID: p.ID,
		URL:     p.URL,
		Folder:  p.FolderName(),
		Caption: p.Caption,
	}
}

// Bounds computes the viewport fit for the given geotagged photos, or nil
// when none carry coordinates.
func Bounds(photos []models.Photo) *models.FitBounds {
	points := make([]models.LatLon, 0, len(photos))
	for i := range photos {
		if photos[i].Geotagged() {
			points = append(points, models.LatLon{Lat: *photos[i].Lat, Lon: *photos[i].Lon})
		}
	}
	if len(points) == 0 {
		return nil
	}
	return &models.FitBounds{Points: points, Padding: FitPadding, MaxZoom: FitMaxZoom}
}
