// Package searchcache memoizes search results for a fixed time window.
package searchcache

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// DefaultTTL is how long a successful lookup stays valid.
const DefaultTTL = 10 * time.Minute

// FetchFunc performs the real lookup. found=false means "no result": the
// value is returned to the caller but not cached.
type FetchFunc[V any] func(ctx context.Context, query string) (value V, found bool, err error)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a TTL map keyed by raw query string. Concurrent misses on the same
// query each call the fetcher; there is no request coalescing.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	clock   clock.Clock
	log     *zap.Logger
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock clock.Clock
	log   *zap.Logger
}

// WithClock swaps the time source, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger used by the pruning loop.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a cache whose entries live for ttl.
func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{clock: clock.New(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		clock:   o.clock,
		log:     o.log,
	}
}

// Get returns the cached value for query if it has not expired yet.
func (c *Cache[V]) Get(query string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[query]
	if !ok || !c.clock.Now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under query, replacing any previous entry.
func (c *Cache[V]) Set(query string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[query] = entry[V]{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
}

// GetOrFetch returns the cached value or calls fetch on a miss. Only found
// results are stored.
func (c *Cache[V]) GetOrFetch(ctx context.Context, query string, fetch FetchFunc[V]) (V, bool, error) {
	if v, ok := c.Get(query); ok {
		return v, true, nil
	}

	v, found, err := fetch(ctx, query)
	if err != nil {
		var zero V
		return zero, false, err
	}
	if found {
		c.Set(query, v)
	}
	return v, found, nil
}

// Prune drops every expired entry and returns how many were removed.
func (c *Cache[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for q, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, q)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TTL returns the entry lifetime, which is also the pruning interval.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Run prunes the cache every TTL until ctx is done.
func (c *Cache[V]) Run(ctx context.Context) error {
	ticker := c.clock.Ticker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := c.Prune(); n > 0 {
				c.log.Debug("pruned search cache", zap.Int("removed", n), zap.Int("remaining", c.Len()))
			}
		}
	}
}
