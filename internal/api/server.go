// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package api exposes the command surface over HTTP.
//
// Every user action in the shell maps to one endpoint, and every command
// response carries a full RenderState snapshot; the shell redraws from it
// wholesale. The browser is bound to its server-side state by a signed
// session cookie minted on first contact.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pindrop/pindrop/internal/app"
	"github.com/pindrop/pindrop/internal/diary"
	"github.com/pindrop/pindrop/internal/logging"
	"github.com/pindrop/pindrop/internal/middleware"
	"github.com/pindrop/pindrop/internal/session"
	"github.com/pindrop/pindrop/internal/store"
	"github.com/pindrop/pindrop/internal/ws"
)

// Deps carries everything the server needs.
type Deps struct {
	Store    *store.Store
	Backend  *diary.Client
	Sessions *session.Controller
	Tokens   *session.TokenManager
	Registry *session.Registry[*app.App]
	Hub      *ws.Hub

	Middleware     *Middleware
	MaxUploadBytes int64
	SecureCookies  bool
}

// Server holds the handlers for the command API.
type Server struct {
	store    *store.Store
	backend  *diary.Client
	sessions *session.Controller
	tokens   *session.TokenManager
	registry *session.Registry[*app.App]
	hub      *ws.Hub

	mw             *Middleware
	maxUploadBytes int64
	secureCookies  bool
	upgrader       websocket.Upgrader
}

// NewServer creates the API server.
func NewServer(deps Deps) *Server {
	mw := deps.Middleware
	if mw == nil {
		mw = NewMiddleware(nil)
	}
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}

	s := &Server{
		store:          deps.Store,
		backend:        deps.Backend,
		sessions:       deps.Sessions,
		tokens:         deps.Tokens,
		registry:       deps.Registry,
		hub:            deps.Hub,
		mw:             mw,
		maxUploadBytes: maxUpload,
		secureCookies:  deps.SecureCookies,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.mw.CORS())

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.mw.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/health", s.Health)
		r.Get("/session", s.Session)
		r.Get("/state", s.State)
		r.Get("/ws", s.WebSocket)

		r.Route("/command", func(r chi.Router) {
			r.Post("/view", s.SetView)
			r.Post("/reset", s.Reset)
			r.Post("/search", s.Search)
			r.Post("/folder", s.OpenFolder)
			r.Post("/rotate", s.Rotate)
			r.Post("/jump", s.Jump)
			r.Post("/upload", s.Upload)
			r.Post("/delete", s.Delete)
			r.Post("/refresh", s.Refresh)
		})
	})

	return r
}

// sessionApp binds the request to its per-browser state, minting a session
// cookie on first contact or when the presented token fails verification.
func (s *Server) sessionApp(w http.ResponseWriter, r *http.Request) (*app.App, error) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		if sessionID, err := s.tokens.Verify(cookie.Value); err == nil {
			return s.registry.Acquire(sessionID), nil
		}
	}

	sessionID, token, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, s.tokens.Cookie(token, s.secureCookies))
	return s.registry.Acquire(sessionID), nil
}

// checkOrigin enforces the CORS origin list on websocket upgrades. The
// wildcard origin admits everything, matching the HTTP CORS behavior.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.mw.config.CORSAllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket upgrade rejected by origin check")
	return false
}
