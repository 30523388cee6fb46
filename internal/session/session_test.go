// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pindrop/pindrop/internal/diary"
)

type fakeAuth struct {
	identities []diary.Identity
	err        error
}

func (f fakeAuth) Me(context.Context) ([]diary.Identity, error) {
	return f.identities, f.err
}

func (fakeAuth) LoginURL(returnURL string) string  { return "/login?to=" + returnURL }
func (fakeAuth) LogoutURL(returnURL string) string { return "/logout?to=" + returnURL }

func TestEstablishLoggedIn(t *testing.T) {
	c := NewController(fakeAuth{identities: []diary.Identity{{UserID: "user@example.com"}}})

	info := c.Establish(context.Background(), "/")
	if !info.LoggedIn || info.DevMode {
		t.Fatalf("info = %+v", info)
	}
	if info.User != "user@example.com" {
		t.Errorf("user = %q", info.User)
	}
	if info.LoginURL != "/login?to=/" || info.LogoutURL != "/logout?to=/" {
		t.Errorf("redirect URLs = %q, %q", info.LoginURL, info.LogoutURL)
	}
}

func TestEstablishLoggedOut(t *testing.T) {
	c := NewController(fakeAuth{})

	info := c.Establish(context.Background(), "/")
	if info.LoggedIn || info.DevMode || info.User != "" {
		t.Errorf("info = %+v", info)
	}
}

func TestEstablishCheckFailureFallsBackToDevMode(t *testing.T) {
	c := NewController(fakeAuth{err: errors.New("connection refused")})

	info := c.Establish(context.Background(), "/")
	if !info.LoggedIn || !info.DevMode {
		t.Fatalf("info = %+v", info)
	}
	if info.User != DevUserLabel {
		t.Errorf("user = %q, want %q", info.User, DevUserLabel)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager([]byte("secret"), time.Hour)

	id, token, err := m.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if id == "" || token == "" {
		t.Fatal("empty session ID or token")
	}

	got, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != id {
		t.Errorf("verified ID = %q, want %q", got, id)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	m := NewTokenManager([]byte("secret"), time.Hour)
	other := NewTokenManager([]byte("different"), time.Hour)

	_, token, err := m.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenGarbageRejected(t *testing.T) {
	m := NewTokenManager([]byte("secret"), time.Hour)
	if _, err := m.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestCookieAttributes(t *testing.T) {
	m := NewTokenManager([]byte("secret"), time.Hour)

	cookie := m.Cookie("tok", true)
	if cookie.Name != CookieName || cookie.Value != "tok" {
		t.Errorf("cookie = %+v", cookie)
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.Path != "/" {
		t.Errorf("cookie attributes = %+v", cookie)
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("MaxAge = %d", cookie.MaxAge)
	}
}

func TestRegistryCreatesAndReuses(t *testing.T) {
	type state struct{ n int }
	created := 0
	r := NewRegistry(time.Hour, func() *state {
		created++
		return &state{}
	})
	defer r.Close()

	a := r.Acquire("s1")
	a.n = 42

	if got := r.Acquire("s1"); got.n != 42 {
		t.Errorf("second acquire returned a different object: %+v", got)
	}
	if created != 1 {
		t.Errorf("factory ran %d times, want 1", created)
	}

	r.Acquire("s2")
	if created != 2 || r.Len() != 2 {
		t.Errorf("created=%d len=%d", created, r.Len())
	}

	r.Remove("s1")
	if r.Len() != 1 {
		t.Errorf("len after remove = %d", r.Len())
	}
}
