//go:build integration
// +build integration

package valkey

import (
	"context"
	"os"
	"testing"
	"time"
)

// setupTestCache connects to the valkey at SAFEZONE_VALKEY_ADDR
// (default localhost:6379).
func setupTestCache(t *testing.T) *Cache {
	addr := os.Getenv("SAFEZONE_VALKEY_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := New(addr)
	if err != nil {
		t.Fatalf("connect valkey: %v", err)
	}
	t.Cleanup(c.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping valkey: %v", err)
	}
	return c
}

func testPrefix() string {
	return "test:" + time.Now().Format("150405.000000") + ":"
}

func TestStorage_GetMissingKey(t *testing.T) {
	s := NewStorage(setupTestCache(t), testPrefix())
	t.Cleanup(func() { _ = s.Reset() })

	val, err := s.Get("absent")
	if err != nil {
		t.Fatalf("expected nil error for a miss, got %v", err)
	}
	if val != nil {
		t.Errorf("expected nil value, got %q", val)
	}
}

func TestStorage_SetGetDelete(t *testing.T) {
	s := NewStorage(setupTestCache(t), testPrefix())
	t.Cleanup(func() { _ = s.Reset() })

	if err := s.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, err := s.Get("k")
	if err != nil || string(val) != "v" {
		t.Fatalf("expected v, got %q (%v)", val, err)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if val, _ := s.Get("k"); val != nil {
		t.Errorf("expected key gone, got %q", val)
	}
}

func TestStorage_SetWithExpiry(t *testing.T) {
	s := NewStorage(setupTestCache(t), testPrefix())
	t.Cleanup(func() { _ = s.Reset() })

	if err := s.Set("short", []byte("v"), 50*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	if val, _ := s.Get("short"); string(val) != "v" {
		t.Fatalf("expected value before expiry, got %q", val)
	}

	time.Sleep(200 * time.Millisecond)
	if val, err := s.Get("short"); err != nil || val != nil {
		t.Errorf("expected expired key to miss, got %q (%v)", val, err)
	}
}

func TestStorage_ZeroExpiryKeepsKey(t *testing.T) {
	c := setupTestCache(t)
	prefix := testPrefix()
	s := NewStorage(c, prefix)
	t.Cleanup(func() { _ = s.Reset() })

	if err := s.Set("forever", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	ttl, err := c.client.Do(context.Background(),
		c.client.B().Pttl().Key(prefix+"forever").Build(),
	).AsInt64()
	if err != nil {
		t.Fatalf("pttl: %v", err)
	}
	if ttl != -1 {
		t.Errorf("expected no expiry (-1), got %d", ttl)
	}
}

func TestStorage_ResetOnlyClearsPrefix(t *testing.T) {
	c := setupTestCache(t)
	mine := NewStorage(c, testPrefix())
	other := NewStorage(c, "other-"+testPrefix())
	t.Cleanup(func() { _ = other.Reset() })

	for _, k := range []string{"a", "b", "c"} {
		if err := mine.Set(k, []byte(k), time.Minute); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if err := other.Set("keep", []byte("x"), time.Minute); err != nil {
		t.Fatalf("set other: %v", err)
	}

	if err := mine.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if val, _ := mine.Get(k); val != nil {
			t.Errorf("expected %s cleared, got %q", k, val)
		}
	}
	if val, _ := other.Get("keep"); string(val) != "x" {
		t.Errorf("expected other prefix untouched, got %q", val)
	}
}
