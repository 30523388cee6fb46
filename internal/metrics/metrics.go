// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package metrics defines the Prometheus instrumentation surface: command API
// latency and throughput, diary backend calls, geocode cache efficiency,
// upload/delete outcomes, and websocket connection counts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pindrop_api_requests_total",
			Help: "Total number of command API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pindrop_api_request_duration_seconds",
			Help:    "Command API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pindrop_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pindrop_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Diary backend metrics
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pindrop_backend_requests_total",
			Help: "Total number of diary backend requests",
		},
		[]string{"operation", "result"}, // result: "success", "failure"
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pindrop_backend_request_duration_seconds",
			Help:    "Diary backend request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pindrop_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Photo collection metrics
	PhotoCollectionSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pindrop_photo_collection_size",
			Help: "Number of photos in the in-memory collection",
		},
	)

	StoreLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pindrop_store_loads_total",
			Help: "Total number of full collection reloads",
		},
		[]string{"result"}, // "success", "failure", "stale"
	)

	// Upload and delete metrics
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pindrop_uploads_total",
			Help: "Total number of upload attempts",
		},
		[]string{"result"}, // "success", "failure", "rejected_in_flight"
	)

	UploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pindrop_upload_duration_seconds",
			Help:    "End-to-end upload sequence duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	DeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pindrop_deletes_total",
			Help: "Total number of delete attempts",
		},
		[]string{"result"},
	)

	// Geocode metrics
	GeocodeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pindrop_geocode_cache_hits_total",
			Help: "Total number of reverse-geocode cache hits",
		},
	)

	GeocodeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pindrop_geocode_cache_misses_total",
			Help: "Total number of reverse-geocode cache misses",
		},
	)

	GeocodeLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pindrop_geocode_lookup_duration_seconds",
			Help:    "Duration of reverse-geocode API calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	GeocodeFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pindrop_geocode_fallbacks_total",
			Help: "Total number of lookups that fell back to the raw coordinate label",
		},
	)

	// Session metrics
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pindrop_active_sessions",
			Help: "Current number of live browser state objects",
		},
	)

	// WebSocket metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pindrop_websocket_connections",
			Help: "Current number of active websocket connections",
		},
	)

	WSRefreshHintsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pindrop_websocket_refresh_hints_total",
			Help: "Total number of refresh hints broadcast to browsers",
		},
	)
)

// RecordAPIRequest records one command API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordBackendRequest records one diary backend call.
func RecordBackendRequest(operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	BackendRequestsTotal.WithLabelValues(operation, result).Inc()
	BackendRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpload records an upload attempt outcome and duration.
func RecordUpload(result string, duration time.Duration) {
	UploadsTotal.WithLabelValues(result).Inc()
	UploadDuration.Observe(duration.Seconds())
}

// RecordDelete records a delete attempt outcome.
func RecordDelete(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	DeletesTotal.WithLabelValues(result).Inc()
}
