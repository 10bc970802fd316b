package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache returned a value")
	}

	c.Set("u1", "dashboard-1")
	got, ok := c.Get("u1")
	if !ok || got != "dashboard-1" {
		t.Errorf("Get(u1) = %q, %v; want dashboard-1, true", got, ok)
	}

	c.Set("u1", "dashboard-2")
	got, _ = c.Get("u1")
	if got != "dashboard-2" {
		t.Errorf("Get(u1) after overwrite = %q, want dashboard-2", got)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("k", 42)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("value expired immediately")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("value survived past its TTL")
	}
	if c.Size() != 0 {
		t.Errorf("Size() after expired read = %d, want 0", c.Size())
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a becomes most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry was not evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry missing")
	}
}

func TestLRUCache_Delete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("k", 1)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("deleted entry still present")
	}
	c.Delete("k") // deleting a missing key is a no-op
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 3)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() after sweep = %d, want 1", c.Size())
	}
}

func TestManager_StopWaitsForCleanup(t *testing.T) {
	m := NewManager()
	c := NewLRUCache[int](10, time.Millisecond)
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)

	c.Set("k", 1)
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return")
	}
}
