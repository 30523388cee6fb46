// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("k", "v")

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("Get returned !ok for fresh entry")
	}
	if got.(string) != "v" {
		t.Errorf("Get = %v, want v", got)
	}
}

func TestGetMissing(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	if _, ok := c.Get("absent"); ok {
		t.Error("Get reported ok for missing key")
	}
}

func TestExpiration(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.SetWithTTL("k", "v", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry still served")
	}

	stats := c.GetStats()
	if stats.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", stats.Evictions)
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry still present")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}

func TestStatsAndHitRate(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("k", "v")
	c.Get("k")
	c.Get("k")
	c.Get("miss")

	stats := c.GetStats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 2 hits / 1 miss", stats)
	}

	rate := c.HitRate()
	if rate < 66 || rate > 67 {
		t.Errorf("HitRate = %f, want ~66.7", rate)
	}
}

func TestRemoveExpiredSweep(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.SetWithTTL("old", 1, -time.Second)
	c.Set("fresh", 2)

	c.removeExpired()

	if c.Len() != 1 {
		t.Errorf("Len after sweep = %d, want 1", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry swept")
	}
}
