package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheExpires(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("expected v, got %q (%v)", got, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.Get(ctx, "k"); err != ErrCacheMiss {
		t.Fatalf("expected miss after ttl, got %v", err)
	}

	c.removeExpired()
	if len(c.entries) != 0 {
		t.Fatalf("expired entry not removed")
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), time.Minute)
	_ = c.Set(ctx, "b", []byte("2"), time.Minute)
	if err := c.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "a"); err != ErrCacheMiss {
		t.Fatalf("expected miss for a, got %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	var out []string
	ok, err := GetJSON(ctx, c, "cats", &out)
	if err != nil || ok {
		t.Fatalf("expected miss, got %v %v", ok, err)
	}

	if err := SetJSON(ctx, c, "cats", []string{"Default Category"}, time.Minute); err != nil {
		t.Fatalf("set json: %v", err)
	}
	ok, err = GetJSON(ctx, c, "cats", &out)
	if err != nil || !ok || len(out) != 1 || out[0] != "Default Category" {
		t.Fatalf("unexpected %v %v %v", out, ok, err)
	}
}
