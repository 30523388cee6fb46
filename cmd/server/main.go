// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package main is the entry point for the Pindrop server.
//
// Pindrop is the backend-for-frontend of a photo diary: a thin browser shell
// issues one HTTP call per user action, and this process owns all view state
// (folder navigation, search, map clustering, carousel positions), talks to
// the external diary backend, and returns render models describing what the
// shell must draw.
//
// # Startup Order
//
//  1. Configuration: koanf layers (defaults, YAML file, PINDROP_ env vars)
//  2. Logging: zerolog per the logging section
//  3. Diary backend client with its circuit breaker
//  4. Reverse geocoder, photo store, upload controller
//  5. Event bus and websocket hub for cross-tab refresh hints
//  6. Session token manager and per-browser state registry
//  7. HTTP API and the supervisor tree
//
// # Configuration
//
// Key environment variables (see internal/config for the full set):
//
//	PINDROP_SERVER_PORT        listen port (default 8080)
//	PINDROP_BACKEND_BASE_URL   diary backend root, e.g. http://diary:7071/api/app
//	PINDROP_SESSION_SECRET     cookie signing secret; empty means ephemeral
//	PINDROP_LOGGING_LEVEL      trace|debug|info|warn|error
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful stop: the HTTP server drains with a
// bounded shutdown, the hub closes its clients, and the supervisor tree winds
// down.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pindrop/pindrop/internal/api"
	"github.com/pindrop/pindrop/internal/app"
	"github.com/pindrop/pindrop/internal/config"
	"github.com/pindrop/pindrop/internal/diary"
	"github.com/pindrop/pindrop/internal/events"
	"github.com/pindrop/pindrop/internal/geocode"
	"github.com/pindrop/pindrop/internal/logging"
	"github.com/pindrop/pindrop/internal/session"
	"github.com/pindrop/pindrop/internal/store"
	"github.com/pindrop/pindrop/internal/supervisor"
	"github.com/pindrop/pindrop/internal/upload"
	"github.com/pindrop/pindrop/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("backend_url", cfg.Backend.BaseURL).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Pindrop")

	backend := diary.NewClient(diary.Config{
		BaseURL:                 cfg.Backend.BaseURL,
		Timeout:                 cfg.Backend.Timeout,
		BreakerFailureThreshold: cfg.Backend.BreakerFailureThreshold,
		BreakerCooldown:         cfg.Backend.BreakerCooldown,
	})
	// The configured principal scopes every backend request. Established
	// session identities are display labels and never override it.
	if cfg.Backend.Principal != "" {
		backend = backend.WithPrincipal(cfg.Backend.Principal)
	}

	geocoder := geocode.New(geocode.Config{
		BaseURL:           cfg.Geocoder.BaseURL,
		Timeout:           cfg.Geocoder.Timeout,
		RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
		CacheTTL:          cfg.Geocoder.CacheTTL,
	})

	photos := store.New(backend)
	uploader := upload.NewController(geocoder, backend, photos, cfg.Upload.LocationTimeout)

	bus := events.NewBus()
	defer bus.Close()

	hub := ws.NewHub()

	tokens := session.NewTokenManager([]byte(cfg.Session.Secret), cfg.Session.TokenTTL)
	registry := session.NewRegistry(cfg.Session.StateTTL, func() *app.App {
		return app.New(photos, backend, uploader, bus)
	})
	defer registry.Close()

	server := api.NewServer(api.Deps{
		Store:    photos,
		Backend:  backend,
		Sessions: session.NewController(backend),
		Tokens:   tokens,
		Registry: registry,
		Hub:      hub,
		Middleware: api.NewMiddleware(&api.MiddlewareConfig{
			CORSAllowedOrigins: cfg.CORS.Origins,
			RateLimitRequests:  cfg.RateLimit.Requests,
			RateLimitWindow:    cfg.RateLimit.Window,
		}),
		MaxUploadBytes: cfg.Upload.MaxBytes,
		SecureCookies:  cfg.Session.SecureCookies,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddPushService(supervisor.NewHubService(hub))
	tree.AddPushService(supervisor.NewRelayService(hub, bus))
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", httpServer.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree failed")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("Pindrop stopped")
}
