// Package infra provides shared infrastructure used across the application:
// a TTL cache and rate limiters for outbound HTTP.
package infra

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"time"
)

// --- In-memory cache ---

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache with a default TTL.
// A zero TTL means entries never expire.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a new cache with the given default TTL.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *Cache[V]) expired(e cacheEntry[V]) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

// Get retrieves a value. The zero value and false are returned when the key
// is missing or expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.expired(entry) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores a value with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: exp}
	c.mu.Unlock()
}

// Keys returns the live keys in sorted order.
func (c *Cache[V]) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k, e := range c.entries {
		if !c.expired(e) {
			keys = append(keys, k)
		}
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Invalidate removes a key from the cache.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Flush removes all entries from the cache.
func (c *Cache[V]) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry[V])
	c.mu.Unlock()
}

// Cleanup removes expired entries. Can be called periodically.
func (c *Cache[V]) Cleanup() {
	c.mu.Lock()
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// --- Rate limiter ---

// RateLimiter provides simple token-bucket rate limiting.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter that allows maxTokens requests
// per refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (rl *RateLimiter) refill() {
	if rl.refillRate <= 0 {
		rl.tokens = rl.maxTokens
		return
	}
	elapsed := time.Since(rl.lastRefill)
	if elapsed >= rl.refillRate {
		periods := int(elapsed / rl.refillRate)
		rl.tokens += periods
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}

// HostLimiter keeps one RateLimiter per URL host so that scraping one site
// never throttles another.
type HostLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*RateLimiter
	maxTokens  int
	refillRate time.Duration
}

// NewHostLimiter creates a per-host limiter.
func NewHostLimiter(maxTokens int, refillRate time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters:   make(map[string]*RateLimiter),
		maxTokens:  maxTokens,
		refillRate: refillRate,
	}
}

// Wait blocks on the limiter of rawURL's host.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}

	h.mu.Lock()
	rl, ok := h.limiters[host]
	if !ok {
		rl = NewRateLimiter(h.maxTokens, h.refillRate)
		h.limiters[host] = rl
	}
	h.mu.Unlock()

	return rl.Wait(ctx)
}
