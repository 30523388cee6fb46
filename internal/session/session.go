// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

// Package session establishes login state against the backend and binds each
// browser to its application state.
//
// Authentication itself is the platform's job; Pindrop only reads the
// session endpoint and relays login/logout redirect URLs. A failed session
// check degrades to a development-mode identity rather than a hard failure.
// That fallback is a convenience for local testing, not a security boundary.
package session

import (
	"context"

	"github.com/pindrop/pindrop/internal/diary"
	"github.com/pindrop/pindrop/internal/logging"
	"github.com/pindrop/pindrop/internal/models"
)

// DevUserLabel identifies the fallback session used when the auth check
// itself fails (local testing without the platform in front).
const DevUserLabel = "Dev User"

// LoggedOutNotice is shown in place of the grid when no session exists.
const LoggedOutNotice = "Please log in to view your memories."

// AuthChecker reads the platform session. Satisfied by *diary.Client.
type AuthChecker interface {
	Me(ctx context.Context) ([]diary.Identity, error)
	LoginURL(returnURL string) string
	LogoutURL(returnURL string) string
}

// Controller performs the session check that gates everything else.
type Controller struct {
	backend AuthChecker
}

// NewController creates a session controller.
func NewController(backend AuthChecker) *Controller {
	return &Controller{backend: backend}
}

// Establish queries the backend session and decides whether the initial
// photo load should run. Outcomes:
//
//   - non-empty session: the user label is returned and loading proceeds
//   - empty session: logged out, no load, the shell shows LoggedOutNotice
//   - check failure: dev-mode fallback identity, loading proceeds anyway
//
// The identity only labels the session for display. Backend requests carry
// the statically configured principal, not the established user, so every
// session sees the same single-user photo collection.
func (c *Controller) Establish(ctx context.Context, returnURL string) *models.SessionInfo {
	info := &models.SessionInfo{
		LoginURL:  c.backend.LoginURL(returnURL),
		LogoutURL: c.backend.LogoutURL(returnURL),
	}

	identities, err := c.backend.Me(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("session check failed, falling back to dev mode")
		info.User = DevUserLabel
		info.LoggedIn = true
		info.DevMode = true
		return info
	}

	if len(identities) == 0 {
		return info
	}

	info.User = identities[0].UserID
	info.LoggedIn = true
	return info
}
