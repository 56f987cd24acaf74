package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("expected hit v, got %q ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Error("expected miss")
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("1"), time.Second)
	_ = c.Set(ctx, "forever", []byte("2"), 0)

	now = now.Add(2 * time.Second)
	if _, ok, _ := c.Get(ctx, "short"); ok {
		t.Error("expected expired entry to miss")
	}
	if _, ok, _ := c.Get(ctx, "forever"); !ok {
		t.Error("zero ttl entry should not expire")
	}
	c.mu.RLock()
	n := len(c.m)
	c.mu.RUnlock()
	if n != 1 {
		t.Errorf("expired entry should be evicted on read, len=%d", n)
	}
}
