// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package geocode resolves coordinates into a human-readable
// "City, Region, Country-code" label via a reverse-geocoding service.
//
// Geocoding is best effort and never blocks an upload: any failure, and any
// response without a usable part, falls back to a raw coordinate label.
// Lookups are rate limited (the public endpoint is a shared courtesy
// service) and memoized, since consecutive uploads from the same spot are
// the common case.
package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/pindrop/pindrop/internal/cache"
	"github.com/pindrop/pindrop/internal/logging"
	"github.com/pindrop/pindrop/internal/metrics"
	"github.com/pindrop/pindrop/internal/models"
)

// DefaultBaseURL is the BigDataCloud client-side reverse-geocode endpoint.
const DefaultBaseURL = "https://api.bigdatacloud.net/data/reverse-geocode-client"

// Config holds geocoder configuration.
type Config struct {
	// BaseURL is the reverse-geocode endpoint. Default: DefaultBaseURL.
	BaseURL string

	// Timeout bounds each lookup. Default: 10s.
	Timeout time.Duration

	// RequestsPerSecond limits outbound lookups. Default: 1.
	RequestsPerSecond float64

	// CacheTTL is how long resolved labels are memoized. Default: 24h.
	CacheTTL time.Duration
}

// Geocoder is a rate-limited, caching reverse-geocode client.
type Geocoder struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cache   *cache.Cache
}

// response is the subset of the provider's payload the label needs.
type response struct {
	City                 string `json:"city"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	CountryCode          string `json:"countryCode"`
}

// New creates a geocoder from config.
func New(cfg Config) *Geocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}

	return &Geocoder{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cache:   cache.New(cfg.CacheTTL),
	}
}

// Close releases the memoization cache.
func (g *Geocoder) Close() {
	g.cache.Close()
}

// Label resolves coordinates to a display label. It always returns a usable
// string: joined "City, Region, CC" parts when the lookup succeeds, the
// FallbackLabel otherwise.
func (g *Geocoder) Label(ctx context.Context, lat, lon float64) string {
	key := models.FormatCoord(lat) + "," + models.FormatCoord(lon)
	if cached, ok := g.cache.Get(key); ok {
		metrics.GeocodeCacheHits.Inc()
		return cached.(string)
	}
	metrics.GeocodeCacheMisses.Inc()

	start := time.Now()
	label, err := g.lookup(ctx, lat, lon)
	metrics.GeocodeLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GeocodeFallbacksTotal.Inc()
		logging.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).
			Msg("reverse geocode failed, using coordinate label")
		return FallbackLabel(lat, lon)
	}

	g.cache.Set(key, label)
	return label
}

// lookup performs one rate-limited request against the provider.
func (g *Geocoder) lookup(ctx context.Context, lat, lon float64) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("latitude", models.FormatCoord(lat))
	q.Set("longitude", models.FormatCoord(lon))
	q.Set("localityLanguage", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode geocode response: %w", err)
	}

	label := joinParts(body)
	if label == "" {
		// Resolved, but with nothing usable in it.
		return FallbackLabel(lat, lon), nil
	}
	return label, nil
}

// joinParts assembles the label from whichever parts are present.
func joinParts(r response) string {
	parts := make([]string, 0, 3)
	if r.City != "" {
		parts = append(parts, r.City)
	}
	if r.PrincipalSubdivision != "" {
		parts = append(parts, r.PrincipalSubdivision)
	}
	if r.CountryCode != "" {
		parts = append(parts, r.CountryCode)
	}
	return strings.Join(parts, ", ")
}

// FallbackLabel renders raw coordinates when no place name is available.
func FallbackLabel(lat, lon float64) string {
	return fmt.Sprintf("GPS: %.2f, %.2f", lat, lon)
}

// CacheStats exposes memoization counters for metrics.
func (g *Geocoder) CacheStats() cache.Stats {
	return g.cache.GetStats()
}
