// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName carries the signed session token between requests.
const CookieName = "pindrop_session"

// DefaultTokenTTL bounds how long a browser session token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken covers every parse or verification failure; callers mint a
// fresh session rather than distinguish the causes.
var ErrInvalidToken = errors.New("invalid session token")

// TokenManager issues and verifies the HS256 cookie that binds a browser to
// its server-side state. The token carries only a random session ID; user
// identity lives behind the backend's own auth and is never embedded here.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager. An empty secret generates an
// ephemeral one, which invalidates all sessions on restart.
func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	if len(secret) == 0 {
		secret = []byte(uuid.NewString())
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: secret, ttl: ttl}
}

// Issue mints a token for a new session and returns the session ID with it.
func (m *TokenManager) Issue() (sessionID, token string, err error) {
	sessionID = uuid.NewString()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign session token: %w", err)
	}
	return sessionID, token, nil
}

// Verify extracts the session ID from a token.
func (m *TokenManager) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Cookie wraps a token for the browser.
func (m *TokenManager) Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
