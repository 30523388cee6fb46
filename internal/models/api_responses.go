// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package models

import "time"

// APIResponse is the standardized envelope for all command API responses.
type APIResponse struct {
	// Status is "success" or "error".
	Status string `json:"status"`

	// Data contains the response payload (null on error).
	Data interface{} `json:"data,omitempty"`

	// Error contains error details (null on success).
	Error *APIError `json:"error,omitempty"`

	// Metadata carries response metadata.
	Metadata Metadata `json:"metadata"`
}

// APIError represents a machine-readable error payload.
type APIError struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details contains additional error context (optional).
	Details interface{} `json:"details,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`

	// RequestID is the request identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// SessionInfo describes the established session returned to the shell.
type SessionInfo struct {
	// User is the identifying label, or "" when logged out.
	User string `json:"user,omitempty"`

	// LoggedIn is false when the shell must show the login placeholder.
	LoggedIn bool `json:"logged_in"`

	// DevMode is true when the auth check failed and Pindrop degraded to the
	// local-testing fallback identity.
	DevMode bool `json:"dev_mode,omitempty"`

	// LoginURL and LogoutURL are backend redirect links parameterized with
	// the post-action return URL.
	LoginURL  string `json:"login_url"`
	LogoutURL string `json:"logout_url"`
}

// UploadResult describes the outcome of an upload surfaced in the shell's
// status area.
type UploadResult struct {
	// Status is the user-visible status line.
	Status string `json:"status"`

	// Location is the label that was submitted with the photo.
	Location string `json:"location"`

	// ClearInputs tells the shell to reset the file/caption inputs.
	ClearInputs bool `json:"clear_inputs"`
}
