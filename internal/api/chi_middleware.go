// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/pindrop/pindrop/internal/metrics"
)

// MiddlewareConfig holds the settings for the CORS and rate-limit factories.
type MiddlewareConfig struct {
	CORSAllowedOrigins []string

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// DefaultMiddlewareConfig returns the development defaults.
func DefaultMiddlewareConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitRequests:  120,
		RateLimitWindow:    time.Minute,
	}
}

// Middleware builds production middleware from the go-chi ecosystem.
type Middleware struct {
	config *MiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewMiddleware creates the middleware factory.
func NewMiddleware(config *MiddlewareConfig) *Middleware {
	if config == nil {
		config = DefaultMiddlewareConfig()
	}
	return &Middleware{
		config: config,
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   config.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           86400,
		}),
	}
}

// CORS returns the CORS middleware. Global so OPTIONS preflight reaches it.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns an IP-keyed rate limiter. Rejections are counted per
// endpoint before the 429 is written.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}),
	)
}
