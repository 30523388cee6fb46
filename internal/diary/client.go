// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package diary is the HTTP client for the external photo diary backend.
//
// The backend is an opaque collaborator with a fixed contract: session info
// at /.auth/me, the photo list at /api/get_images, multipart uploads at
// /api/upload_image, and deletion at /api/delete_image?name=<id>. All
// persistence and business logic live behind that contract; this client only
// moves bytes and never retries on its own. Requests run behind a circuit
// breaker so a dead backend fails fast instead of stacking up timeouts.
package diary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pindrop/pindrop/internal/metrics"
	"github.com/pindrop/pindrop/internal/models"
)

// principalHeader carries the authenticated user identity to the backend,
// matching the platform header the backend validates.
const principalHeader = "X-MS-CLIENT-PRINCIPAL-ID"

// Identity is one entry of the /.auth/me response. An empty list means the
// caller is not logged in.
type Identity struct {
	UserID string `json:"user_id"`
}

// StatusError is returned for non-2xx backend responses. Body carries the
// backend's error detail, surfaced verbatim to the user on upload failure.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. https://diary.example.net/api/app.
	BaseURL string

	// Timeout bounds each request. Default: 30s.
	Timeout time.Duration

	// BreakerFailureThreshold is the consecutive-failure count that opens
	// the circuit. Default: 5.
	BreakerFailureThreshold uint32

	// BreakerCooldown is how long the circuit stays open. Default: 30s.
	BreakerCooldown time.Duration
}

// Client talks to the diary backend. It is safe for concurrent use; the
// breaker and HTTP client are shared across per-session copies.
type Client struct {
	baseURL   string
	principal string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient creates a backend client from config.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "diary-backend",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// WithPrincipal returns a copy of the client that sends the given user
// identity with every request. The HTTP client and breaker are shared.
func (c *Client) WithPrincipal(userID string) *Client {
	clone := *c
	clone.principal = userID
	return &clone
}

// breakerStateValue maps a breaker state onto the exported gauge scale.
func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// do runs a request through the circuit breaker. Server-side failures (5xx)
// count against the breaker; client-side statuses do not, since they signal
// caller errors rather than backend health.
func (c *Client) do(operation string, req *http.Request) (*http.Response, error) {
	if c.principal != "" {
		req.Header.Set(principalHeader, c.principal)
	}
	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			body := readBody(resp)
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
		}
		return resp, nil
	})
	metrics.RecordBackendRequest(operation, time.Since(start), err)
	return resp, err
}

// readBody drains and closes a response body, returning it as a string.
func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return ""
	}
	return string(data)
}

// Me returns the current session identities. An empty slice means logged
// out. The request carries a cache-busting parameter so intermediaries never
// serve a stale session.
func (c *Client) Me(ctx context.Context) ([]Identity, error) {
	u := fmt.Sprintf("%s/.auth/me?v=%d", c.baseURL, time.Now().UnixMilli())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}

	resp, err := c.do("auth_me", req)
	if err != nil {
		return nil, fmt.Errorf("auth check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: readBody(resp)}
	}

	var identities []Identity
	if err := json.NewDecoder(resp.Body).Decode(&identities); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	return identities, nil
}

// GetImages fetches the full photo list.
func (c *Client) GetImages(ctx context.Context) ([]models.Photo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/get_images", nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}

	resp, err := c.do("get_images", req)
	if err != nil {
		return nil, fmt.Errorf("fetch photos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: readBody(resp)}
	}

	var photos []models.Photo
	if err := json.NewDecoder(resp.Body).Decode(&photos); err != nil {
		return nil, fmt.Errorf("decode photo list: %w", err)
	}
	return photos, nil
}

// UploadRequest is the multipart payload for a new photo.
type UploadRequest struct {
	FileName string
	File     io.Reader
	Caption  string
	Folder   string
	Location string

	// Lat and Lon are included in the form only when present.
	Lat *float64
	Lon *float64
}

// UploadImage submits a new photo. A non-2xx response is returned as a
// StatusError carrying the backend's error detail.
func (c *Client) UploadImage(ctx context.Context, up UploadRequest) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", up.FileName)
	if err != nil {
		return fmt.Errorf("build form file: %w", err)
	}
	if _, err := io.Copy(part, up.File); err != nil {
		return fmt.Errorf("copy file payload: %w", err)
	}

	fields := map[string]string{
		"location": up.Location,
		"caption":  up.Caption,
		"folder":   up.Folder,
	}
	if up.Lat != nil {
		fields["lat"] = strconv.FormatFloat(*up.Lat, 'f', -1, 64)
	}
	if up.Lon != nil {
		fields["lon"] = strconv.FormatFloat(*up.Lon, 'f', -1, 64)
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return fmt.Errorf("write form field %s: %w", name, err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload_image", &buf)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.do("upload_image", req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: resp.StatusCode, Body: readBody(resp)}
	}
	return nil
}

// DeleteImage deletes a photo by id. The caller decides whether to treat a
// failure as fatal; the view layer reloads the store either way.
func (c *Client) DeleteImage(ctx context.Context, id string) error {
	u := c.baseURL + "/api/delete_image?name=" + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}

	resp, err := c.do("delete_image", req)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: readBody(resp)}
	}
	return nil
}

// LoginURL returns the backend login redirect carrying the post-login
// return URL.
func (c *Client) LoginURL(returnURL string) string {
	return c.baseURL + "/.auth/login/aad?post_login_redirect_url=" + url.QueryEscape(returnURL)
}

// LogoutURL returns the backend logout redirect carrying the post-logout
// return URL.
func (c *Client) LogoutURL(returnURL string) string {
	return c.baseURL + "/.auth/logout?post_logout_redirect_uri=" + url.QueryEscape(returnURL)
}

// BreakerState reports the circuit breaker state for health reporting.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}
