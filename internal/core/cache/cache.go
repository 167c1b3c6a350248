// Package cache is the response cache: a TTL plus LRU bounded key-value
// store used to memoize expensive query results. Instances are constructed
// once and injected; there is no package-level singleton, so tests get
// isolated caches for free
package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"docketlens/internal/platform/config"
)

// timeNow is a seam for expiry tests
var timeNow = time.Now

// Config bounds one cache instance
type Config struct {
	// MaxItems is the entry-count ceiling; 0 means unbounded
	MaxItems int

	// MaxBytes caps the summed size estimates; 0 means unbounded.
	// Estimates are serialized lengths: cheap, not exact, but monotonic
	// in content size, which is all eviction needs
	MaxBytes int

	// Disabled turns the cache into an always-miss no-op with an
	// unchanged public contract; callers never special-case it
	Disabled bool
}

// FromConf reads cache bounds from a CACHE_* config view
func FromConf(cfg config.Conf) Config {
	return Config{
		MaxItems: cfg.MayInt("MAX_ITEMS", 500),
		MaxBytes: cfg.MayInt("MAX_BYTES", 64<<20),
		Disabled: cfg.MayBool("DISABLED", false),
	}
}

type entry struct {
	key        string
	val        any
	size       int
	createdAt  time.Time
	accessedAt time.Time
	ttl        time.Duration
	elem       *list.Element
}

func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.After(e.createdAt.Add(e.ttl))
}

// Cache is safe for concurrent use. The single mutex is deliberate: entries
// are small and the hot path is a map hit plus a list move
type Cache struct {
	mu    sync.Mutex
	cfg   Config
	items map[string]*entry
	order *list.List // front = most recently used
	bytes int
}

// New builds a cache with the given bounds
func New(cfg Config) *Cache {
	return &Cache{cfg: cfg, items: map[string]*entry{}, order: list.New()}
}

// Get returns the live value for key. An expired entry is evicted and
// reported as a miss; a hit bumps the entry's access time for LRU ordering
func (c *Cache) Get(key string) (any, bool) {
	if c.cfg.Disabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	now := timeNow()
	if e.expired(now) {
		c.remove(e)
		return nil, false
	}
	e.accessedAt = now
	c.order.MoveToFront(e.elem)
	return e.val, true
}

// Has reports whether key holds a live value, with the same lazy eviction
// as Get but without touching LRU order
func (c *Cache) Has(key string) bool {
	if c.cfg.Disabled {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return false
	}
	if e.expired(timeNow()) {
		c.remove(e)
		return false
	}
	return true
}

// Set stores val under key for ttl, evicting least-recently-used entries
// first when a ceiling would be exceeded
func (c *Cache) Set(key string, val any, ttl time.Duration) {
	if c.cfg.Disabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		c.remove(e)
	}

	now := timeNow()
	e := &entry{key: key, val: val, size: sizeEstimate(val), createdAt: now, accessedAt: now, ttl: ttl}
	e.elem = c.order.PushFront(e)
	c.items[key] = e
	c.bytes += e.size

	for c.overLimit() {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.remove(back.Value.(*entry))
	}
}

func (c *Cache) overLimit() bool {
	if c.cfg.MaxItems > 0 && len(c.items) > c.cfg.MaxItems {
		return true
	}
	if c.cfg.MaxBytes > 0 && c.bytes > c.cfg.MaxBytes {
		return true
	}
	return false
}

// Delete removes key and reports whether it was present
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if ok {
		c.remove(e)
	}
	return ok
}

// DeleteByPattern removes every entry whose key the matcher accepts and
// returns the number removed. Called after any write to the backing store
func (c *Cache) DeleteByPattern(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, e := range c.items {
		if match(key) {
			c.remove(e)
			n++
		}
	}
	return n
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string]*entry{}
	c.order.Init()
	c.bytes = 0
}

// Len reports the current entry count
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// GetOrCompute returns the live cached value or runs produce and caches its
// result. An expired entry is never returned. Concurrent callers for the
// same missing key may each run produce; the last writer wins, which is
// harmless for idempotent query results and avoids holding the lock across
// the producer
func (c *Cache) GetOrCompute(
	ctx context.Context,
	key string,
	ttl time.Duration,
	produce func(ctx context.Context) (any, error),
) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := produce(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(key, v, ttl)
	return v, nil
}

// remove must be called with the lock held
func (c *Cache) remove(e *entry) {
	delete(c.items, e.key)
	c.order.Remove(e.elem)
	c.bytes -= e.size
}

// sizeEstimate is a cheap monotonic proxy for entry weight
func sizeEstimate(val any) int {
	if b, err := json.Marshal(val); err == nil {
		return len(b)
	}
	return len(fmt.Sprint(val))
}
