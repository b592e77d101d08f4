package respcache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Fingerprint derives the deterministic cache key for a prompt within a
// logical namespace (provider + decision prefix + mode + branch index).
// Two identical requests always collide; no timestamps or salt are mixed in.
func Fingerprint(prompt, namespace string) string {
	payload, _ := json.Marshal(struct {
		Prompt    string `json:"prompt"`
		Namespace string `json:"namespace"`
	}{prompt, namespace})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// cacheEntry is a single cached response with its insertion time
type cacheEntry struct {
	value      interface{}
	insertedAt time.Time
	element    *list.Element // For LRU tracking
}

// isExpired checks if the cache entry has expired
func (e *cacheEntry) isExpired(ttl time.Duration) bool {
	return time.Since(e.insertedAt) > ttl
}

// Cache is an in-memory LRU cache with TTL for LLM responses.
// Thread-safe; a get-then-promote and a set-then-evict are each one
// atomic unit under the mutex.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*cacheEntry
	lruList   *list.List // Front = most recently used
	maxSize   int
	ttl       time.Duration
	hits      uint64
	misses    uint64
	evictions uint64
}

// Stats represents cache statistics. HitRate is a percentage string
// ("66.7%") so it can surface directly in the status endpoint.
type Stats struct {
	Size       int     `json:"size"`
	MaxSize    int     `json:"max_size"`
	Hits       uint64  `json:"hits"`
	Misses     uint64  `json:"misses"`
	Evictions  uint64  `json:"evictions"`
	HitRate    string  `json:"hit_rate"`
	TTLMinutes float64 `json:"ttl_minutes"`
}

// New creates a Cache holding at most maxSize entries, each live for ttl
func New(maxSize int, ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the cached response for the prompt+namespace, or nil on a
// miss. Expiry is checked lazily here: a stale entry is removed and
// counted as a miss. A hit promotes the entry to most recently used.
func (c *Cache) Get(prompt, namespace string) interface{} {
	key := Fingerprint(prompt, namespace)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil
	}

	if entry.isExpired(c.ttl) {
		c.removeEntry(key)
		c.misses++
		return nil
	}

	c.lruList.MoveToFront(entry.element)
	c.hits++
	return entry.value
}

// Set stores a response under the prompt+namespace fingerprint. Inserting
// a new key at capacity evicts the least recently used entry first; both
// insert and replace promote the key to most recently used.
func (c *Cache) Set(prompt, namespace string, value interface{}) {
	key := Fingerprint(prompt, namespace)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[key]; exists {
		entry.value = value
		entry.insertedAt = time.Now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{
		value:      value,
		insertedAt: time.Now(),
	}
	entry.element = c.lruList.PushFront(key)
	c.entries[key] = entry
}

// Clear removes all entries. Cumulative hit/miss/eviction counters are
// process-lifetime and survive a clear.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.lruList.Init()
}

// GetStats returns cache statistics
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:       c.lruList.Len(),
		MaxSize:    c.maxSize,
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
		HitRate:    c.formatHitRate(),
		TTLMinutes: c.ttl.Minutes(),
	}
}

// formatHitRate renders the hit rate percentage (caller holds the lock)
func (c *Cache) formatHitRate() string {
	total := c.hits + c.misses
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(c.hits)/float64(total)*100)
}

// removeEntry removes an entry from the cache (must be called with lock held)
func (c *Cache) removeEntry(key string) {
	if entry, exists := c.entries[key]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, key)
	}
}

// evictLRU evicts the least recently used entry (must be called with lock held)
func (c *Cache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	key := back.Value.(string)
	c.lruList.Remove(back)
	delete(c.entries, key)
	c.evictions++
}
