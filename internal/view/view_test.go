// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package view

import (
	"testing"

	"github.com/pindrop/pindrop/internal/cluster"
	"github.com/pindrop/pindrop/internal/models"
)

func samplePhotos() []models.Photo {
	return []models.Photo{
		{ID: "1", Folder: "Paris", Caption: "tower", Location: "Paris, FR", Lat: models.Coord(48.85), Lon: models.Coord(2.35)},
		{ID: "2", Folder: "Paris", Caption: "louvre", Location: "Paris, FR", Lat: models.Coord(48.85), Lon: models.Coord(2.35)},
		{ID: "3", Folder: "Tokyo", Caption: "shibuya"},
	}
}

func TestFolderCardsGroupingAndCounts(t *testing.T) {
	cards := FolderCards(samplePhotos())

	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
	if cards[0].Name != "Paris" || cards[0].Count != 2 {
		t.Errorf("cards[0] = %+v, want Paris/2", cards[0])
	}
	if cards[1].Name != "Tokyo" || cards[1].Count != 1 {
		t.Errorf("cards[1] = %+v, want Tokyo/1", cards[1])
	}
}

func TestFolderCardsIsAPartition(t *testing.T) {
	photos := []models.Photo{
		{ID: "1", Folder: "A"},
		{ID: "2"},
		{ID: "3", Folder: ""},
		{ID: "4", Folder: "B"},
		{ID: "5", Folder: "A"},
	}

	cards := FolderCards(photos)

	total := 0
	for _, c := range cards {
		total += c.Count
	}
	if total != len(photos) {
		t.Errorf("group counts sum to %d, want %d", total, len(photos))
	}

	unsorted, found := 0, false
	for _, c := range cards {
		if c.Name == models.UnsortedFolder {
			unsorted = c.Count
			found = true
		}
	}
	if !found || unsorted != 2 {
		t.Errorf("Unsorted group = (%d, %v), want (2, true)", unsorted, found)
	}
}

func TestFolderContents(t *testing.T) {
	photos := samplePhotos()

	paris := FolderContents(photos, "Paris")
	if len(paris) != 2 {
		t.Fatalf("Paris contents = %d photos, want 2", len(paris))
	}

	// Unsorted drill-down picks up empty-folder photos.
	photos = append(photos, models.Photo{ID: "4"})
	unsorted := FolderContents(photos, models.UnsortedFolder)
	if len(unsorted) != 1 || unsorted[0].ID != "4" {
		t.Errorf("Unsorted contents = %+v, want the folderless photo", unsorted)
	}
}

func TestPhotoCardsLocationSuppression(t *testing.T) {
	photos := []models.Photo{
		{ID: "1", Location: "Lisbon, PT"},
		{ID: "2", Location: models.UnknownLocation},
		{ID: "3"},
	}

	cards := PhotoCards(photos, "")

	if cards[0].LocationLabel != "Lisbon, PT" {
		t.Errorf("card 0 label = %q, want %q", cards[0].LocationLabel, "Lisbon, PT")
	}
	if cards[1].LocationLabel != "" {
		t.Errorf("Unknown Location sentinel not suppressed: %q", cards[1].LocationLabel)
	}
	if cards[2].LocationLabel != "" {
		t.Errorf("absent location not suppressed: %q", cards[2].LocationLabel)
	}
}

func TestPhotoCardsHighlight(t *testing.T) {
	cards := PhotoCards(samplePhotos(), "2")

	for _, c := range cards {
		if c.ID == "2" && !c.Highlight {
			t.Error("card 2 not highlighted")
		}
		if c.ID != "2" && c.Highlight {
			t.Errorf("card %s highlighted unexpectedly", c.ID)
		}
	}
}

func TestFilterIsCaseInsensitive(t *testing.T) {
	photos := samplePhotos()

	lower := Filter(photos, "paris")
	upper := Filter(photos, "PARIS")

	if len(lower) != 2 || len(upper) != 2 {
		t.Fatalf("Filter(paris) = %d, Filter(PARIS) = %d, want 2 and 2", len(lower), len(upper))
	}
	for i := range lower {
		if lower[i].ID != upper[i].ID {
			t.Errorf("case variants disagree at %d: %s vs %s", i, lower[i].ID, upper[i].ID)
		}
	}
}

func TestFilterMatchesAnyOfThreeFields(t *testing.T) {
	photos := []models.Photo{
		{ID: "cap", Caption: "sunset ride"},
		{ID: "fold", Folder: "Sunsets"},
		{ID: "loc", Location: "Sunset Blvd"},
		{ID: "none", Caption: "morning"},
	}

	got := Filter(photos, "sunset")
	if len(got) != 3 {
		t.Fatalf("got %d matches, want 3", len(got))
	}
	for _, p := range got {
		if p.ID == "none" {
			t.Error("non-matching photo included")
		}
	}
}

func TestFilterEmptyQueryMatchesAll(t *testing.T) {
	photos := samplePhotos()
	if got := Filter(photos, ""); len(got) != len(photos) {
		t.Errorf("empty query matched %d of %d", len(got), len(photos))
	}
}

func TestPinsAndPopupContent(t *testing.T) {
	ix := cluster.NewIndex()
	ix.Build(samplePhotos())

	pins := Pins(ix)
	if len(pins) != 1 {
		t.Fatalf("got %d pins, want 1 (photo 3 has no coordinates)", len(pins))
	}

	popup := pins[0].Popup
	if popup.Counter != "1 / 2" {
		t.Errorf("counter = %q, want %q", popup.Counter, "1 / 2")
	}
	if popup.PhotoID != "1" {
		t.Errorf("popup shows photo %s, want 1", popup.PhotoID)
	}
	if popup.Title != "Paris, FR" {
		t.Errorf("popup title = %q, want location label", popup.Title)
	}
	if popup.Folder != "Paris" {
		t.Errorf("popup folder = %q, want Paris", popup.Folder)
	}
}

func TestPopupPlaceholderTitleAndUnsortedFolder(t *testing.T) {
	ix := cluster.NewIndex()
	ix.Build([]models.Photo{
		{ID: "x", Lat: models.Coord(1), Lon: models.Coord(2)},
	})

	c, _ := ix.Cluster("1,2")
	popup := PopupFor(c, 0)

	if popup.Title != models.PopupPlaceholderTitle {
		t.Errorf("title = %q, want placeholder %q", popup.Title, models.PopupPlaceholderTitle)
	}
	if popup.Folder != models.UnsortedFolder {
		t.Errorf("folder = %q, want %q", popup.Folder, models.UnsortedFolder)
	}
}

func TestPopupIsIdempotent(t *testing.T) {
	ix := cluster.NewIndex()
	ix.Build(samplePhotos())
	c, _ := ix.Cluster("48.85,2.35")

	a := PopupFor(c, 1)
	b := PopupFor(c, 1)
	if a != b {
		t.Errorf("popup not idempotent for fixed (cluster, index): %+v vs %+v", a, b)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds(samplePhotos())
	if b == nil {
		t.Fatal("Bounds returned nil for geotagged input")
	}
	if len(b.Points) != 2 {
		t.Errorf("got %d points, want 2", len(b.Points))
	}
	if b.Padding != FitPadding || b.MaxZoom != FitMaxZoom {
		t.Errorf("fit params = (%d, %d), want (%d, %d)", b.Padding, b.MaxZoom, FitPadding, FitMaxZoom)
	}

	if got := Bounds([]models.Photo{{ID: "no-geo"}}); got != nil {
		t.Errorf("Bounds for non-geotagged input = %+v, want nil", got)
	}
}
