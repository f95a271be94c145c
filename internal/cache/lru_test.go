package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a to survive, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected fresh entry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry to be dropped")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry cleaned, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUCachePurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("expected empty cache after purge, got %d", c.Size())
	}
	c.Set("a", 3)
	if v, ok := c.Get("a"); !ok || v != 3 {
		t.Fatalf("cache unusable after purge: %v %v", v, ok)
	}
}

func TestLRUCacheStats(t *testing.T) {
	c := NewLRUCache[int](1, time.Minute)
	c.Get("missing")
	c.Set("a", 1)
	c.Get("a")
	c.Set("b", 2)

	got := c.Stats()
	want := Stats{Hits: 1, Misses: 1, Evictions: 1}
	if got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}
}

type countingCleaner struct{ n int }

func (c *countingCleaner) CleanExpired() int { return c.n }

func TestManagerSweep(t *testing.T) {
	m := NewManager(nil)
	m.Register("one", &countingCleaner{n: 2})
	m.Register("two", &countingCleaner{n: 3})
	if got := m.sweep(); got != 5 {
		t.Fatalf("sweep removed %d, want 5", got)
	}
}

func TestManagerStop(t *testing.T) {
	m := NewManager(nil)
	m.Register("short", NewLRUCache[int](1, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop()

	idle := NewManager(nil)
	idle.Stop()
}
