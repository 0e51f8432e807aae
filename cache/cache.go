// Package cache holds discovered seed lists for their configured TTL so
// repeated queries skip the Google API. It never stores pipeline output:
// enrichment always runs, only discovery is cached.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

// entry holds one cached seed list with its creation timestamp.
type entry struct {
	seeds     []*models.ProductRecord
	createdAt time.Time
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Cache is an in-memory TTL cache for discovery results. It is safe for
// concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	ttl        time.Duration
	maxEntries int

	hits      int64
	misses    int64
	evictions int64
}

// New creates a Cache with the given TTL and entry bound. A background
// goroutine sweeps expired entries once a minute for the life of the
// process.
func New(ttl time.Duration, maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}

	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the query and the requested result count.
// The query is normalized (lowercased, whitespace collapsed) so trivially
// different spellings share an entry.
func Key(query string, maxResults int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")

	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(maxResults)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached seed list if it exists and has not expired.
// The returned slice is a copy; callers may append to it freely.
func (c *Cache) Get(key string) ([]*models.ProductRecord, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > c.ttl {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()

	out := make([]*models.ProductRecord, len(e.seeds))
	copy(out, e.seeds)
	return out, true
}

// Set stores a seed list. If the cache is at capacity, a random entry is
// evicted to make room (map iteration order is random in Go).
func (c *Cache) Set(key string, seeds []*models.ProductRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			c.evictions++
			break
		}
	}

	c.store[key] = &entry{
		seeds:     seeds,
		createdAt: time.Now(),
	}
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries:   len(c.store),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// cleanupLoop evicts expired entries once a minute.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
				c.evictions++
			}
		}
		c.mu.Unlock()
	}
}
