package cache

import (
	"testing"
	"time"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

func seeds(urls ...string) []*models.ProductRecord {
	out := make([]*models.ProductRecord, 0, len(urls))
	for _, u := range urls {
		out = append(out, &models.ProductRecord{URL: u})
	}
	return out
}

func TestKeyNormalization(t *testing.T) {
	if Key("Pipette  Tips", 8) != Key("pipette tips", 8) {
		t.Error("case and whitespace variants should share a key")
	}
	if Key("pipette tips", 8) == Key("pipette tips", 5) {
		t.Error("different result counts must not share a key")
	}
	if Key("pipette tips", 8) == Key("gel plates", 8) {
		t.Error("different queries must not share a key")
	}
}

func TestGetSetRoundtrip(t *testing.T) {
	c := New(time.Minute, 10)

	key := Key("pipette tips", 8)
	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache should miss")
	}

	c.Set(key, seeds("https://a.test/1", "https://a.test/2"))

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if len(got) != 2 || got[0].URL != "https://a.test/1" {
		t.Errorf("got %v", got)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, 1 entry", stats)
	}
}

func TestGetExpired(t *testing.T) {
	c := New(20*time.Millisecond, 10)

	key := Key("pipette tips", 8)
	c.Set(key, seeds("https://a.test/1"))

	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("entry past its TTL should miss")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	c := New(time.Minute, 10)

	key := Key("pipette tips", 8)
	c.Set(key, seeds("https://a.test/1"))

	first, _ := c.Get(key)
	_ = append(first, &models.ProductRecord{URL: "https://b.test/x"})

	second, _ := c.Get(key)
	if len(second) != 1 {
		t.Errorf("cached list grew to %d entries, Get must hand out copies", len(second))
	}
}

func TestCapacityEviction(t *testing.T) {
	c := New(time.Minute, 2)

	c.Set(Key("q1", 8), seeds("https://a.test/1"))
	c.Set(Key("q2", 8), seeds("https://a.test/2"))
	c.Set(Key("q3", 8), seeds("https://a.test/3"))

	stats := c.Stats()
	if stats.Entries != 2 {
		t.Errorf("entries = %d, want capacity bound 2", stats.Entries)
	}
	if stats.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", stats.Evictions)
	}

	// Overwriting an existing key at capacity must not evict anything.
	c.Set(Key("q3", 8), seeds("https://a.test/3b"))
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("evictions after overwrite = %d, want still 1", got)
	}
}
