// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package cluster groups photos into map pins by exact coordinate match and
// tracks a per-pin carousel pointer.
//
// Clustering is by exact string equality of the "lat,lon" key, not geographic
// distance. Nearby-but-not-identical GPS fixes therefore form separate
// single-photo pins. This keeps grouping O(n) and deterministic and is a
// deliberate, documented limitation.
package cluster

import "github.com/pindrop/pindrop/internal/models"

// Cluster is the set of photos sharing one exact coordinate key, in
// first-seen order of the input list.
type Cluster struct {
	Key    string
	Lat    float64
	Lon    float64
	Photos []models.Photo
}

// Index maps coordinate keys to clusters and carries the carousel pointers.
//
// The cluster mapping is rebuilt from scratch on every Build call. Pointers
// are kept in a separate map keyed by the same strings and deliberately
// survive rebuilds: reopening a popup after a re-render resumes where the
// carousel left off. Out-of-range pointers are normalized lazily on read.
type Index struct {
	clusters map[string]*Cluster
	order    []string
	pointers map[string]int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		clusters: make(map[string]*Cluster),
		pointers: make(map[string]int),
	}
}

// Build replaces the cluster mapping with groups derived from photos.
// Photos without both coordinates are skipped. Within a cluster, photo order
// is the input order; cluster iteration order is first-seen key order, so the
// same input always yields the same grouping.
func (ix *Index) Build(photos []models.Photo) {
	ix.clusters = make(map[string]*Cluster)
	ix.order = ix.order[:0]

	for _, p := range photos {
		key := p.ClusterKey()
		if key == "" {
			continue
		}
		c, ok := ix.clusters[key]
		if !ok {
			c = &Cluster{Key: key, Lat: *p.Lat, Lon: *p.Lon}
			ix.clusters[key] = c
			ix.order = append(ix.order, key)
		}
		c.Photos = append(c.Photos, p)
	}
}

// Len returns the number of clusters.
func (ix *Index) Len() int {
	return len(ix.clusters)
}

// Clusters returns all clusters in first-seen order.
func (ix *Index) Clusters() []*Cluster {
	out := make([]*Cluster, 0, len(ix.order))
	for _, key := range ix.order {
		out = append(out, ix.clusters[key])
	}
	return out
}

// Cluster returns the cluster for key, if one exists in the current mapping.
func (ix *Index) Cluster(key string) (*Cluster, bool) {
	c, ok := ix.clusters[key]
	return c, ok
}

// Current returns the carousel pointer for key, normalized into [0, len).
// The normalized value is stored back so later reads agree. Returns false
// for keys with no cluster in the current mapping.
func (ix *Index) Current(key string) (int, bool) {
	c, ok := ix.clusters[key]
	if !ok || len(c.Photos) == 0 {
		return 0, false
	}
	idx := ix.normalize(ix.pointers[key], len(c.Photos))
	ix.pointers[key] = idx
	return idx, true
}

// Rotate advances the pointer for key by direction (+1 or -1), wrapping at
// either end. It is a no-op for keys with no current cluster; ok reports
// whether a rotation happened.
func (ix *Index) Rotate(key string, direction int) (idx int, ok bool) {
	c, exists := ix.clusters[key]
	if !exists || len(c.Photos) == 0 {
		return 0, false
	}
	idx = ix.normalize(ix.pointers[key]+direction, len(c.Photos))
	ix.pointers[key] = idx
	return idx, true
}

// normalize wraps a single step past either end: negative values land on the
// last photo, values past the end land on the first. This matches carousel
// stepping, where the pointer only ever drifts one position out of range.
func (ix *Index) normalize(idx, length int) int {
	if idx < 0 {
		return length - 1
	}
	if idx >= length {
		return 0
	}
	return idx
}
