// Package cache holds query results keyed by caller-chosen strings, with
// per-entry expiry and glob-based invalidation of key families.
package cache

import (
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	DefaultCapacity = 10000
	DefaultTTL      = 5 * time.Minute
)

// Options configure a ResultCache.
type Options struct {
	// Capacity caps the number of entries; the least recently set entry is
	// evicted first.
	Capacity   int
	DefaultTTL time.Duration
	Now        func() time.Time
}

// Stats is a snapshot of cache effectiveness.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	ItemCount int     `json:"item_count"`
	Capacity  int     `json:"capacity"`
	Evictions int64   `json:"evictions"`
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// ResultCache is safe for concurrent use.
type ResultCache struct {
	mu         sync.Mutex
	lru        *simplelru.LRU[string, entry]
	capacity   int
	defaultTTL time.Duration
	now        func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

func New(opts Options) (*ResultCache, error) {
	if opts.Capacity == 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l, err := simplelru.NewLRU[string, entry](opts.Capacity, nil)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}

	return &ResultCache{
		lru:        l,
		capacity:   opts.Capacity,
		defaultTTL: opts.DefaultTTL,
		now:        opts.Now,
	}, nil
}

// Set stores value under key until now+ttl, replacing any existing entry.
// A non-positive ttl uses the default TTL.
func (c *ResultCache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	e := entry{value: value, expiresAt: c.now().Add(ttl)}

	c.mu.Lock()
	evicted := c.lru.Add(key, e)
	c.mu.Unlock()

	if evicted {
		c.evictions.Add(1)
	}
}

// Get returns the live value for key. Expired entries are dropped and count
// as misses.
func (c *ResultCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	e, ok := c.lru.Peek(key)
	if ok && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Has reports whether key holds a live entry without touching hit counters.
// An expired entry is dropped.
func (c *ResultCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Peek(key)
	if ok && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return false
	}
	return ok
}

func (c *ResultCache) Delete(key string) {
	c.mu.Lock()
	c.lru.Remove(key)
	c.mu.Unlock()
}

// DeletePattern removes every key matching a path.Match glob such as
// "portfolio_*" and returns how many were removed. A malformed pattern
// returns path.ErrBadPattern and removes nothing.
func (c *ResultCache) DeletePattern(pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("delete pattern %q: %w", pattern, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range c.lru.Keys() {
		if ok, _ := path.Match(pattern, key); ok {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed, nil
}

// PurgeExpired drops every expired entry and returns how many were dropped.
func (c *ResultCache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	purged := 0
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && !now.Before(e.expiresAt) {
			c.lru.Remove(key)
			purged++
		}
	}
	return purged
}

// Clear drops all entries. Counters are kept.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	c.lru.Purge()
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// liveLen counts entries that have not expired yet.
func (c *ResultCache) liveLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	live := 0
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && now.Before(e.expiresAt) {
			live++
		}
	}
	return live
}

func (c *ResultCache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}

	return Stats{
		Hits:      hits,
		Misses:    misses,
		HitRate:   rate,
		ItemCount: c.liveLen(),
		Capacity:  c.capacity,
		Evictions: c.evictions.Load(),
	}
}
