// Package addrcache memoizes remote address checks. A key pairs a
// route's declared address list with one client address, and the cached
// value is whether the client address falls inside any listed address
// or range.
package addrcache

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vyrodovalexey/avaroute/internal/netaddr"
)

// Default cache policy.
const (
	DefaultSize = 10000
	DefaultTTL  = time.Minute
)

// Cache is an LRU cache with per-entry TTL. It is owned by one matcher and
// safe for concurrent use; two goroutines missing on the same key both
// compute and store the same value. Expired entries are not swept: a lookup
// that finds one treats it as a miss and overwrites it, and the LRU bound
// removes the rest.
type Cache struct {
	lru     *lru.Cache[string, cachedMatch]
	matcher netaddr.Matcher
	metrics *Metrics
	now     func() time.Time
	size    int
	ttl     time.Duration
}

type cachedMatch struct {
	matched bool
	expires time.Time
}

// Option is a functional option for the cache.
type Option func(*Cache)

// WithSize sets the maximum number of entries.
func WithSize(size int) Option {
	return func(c *Cache) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithTTL sets the lifetime of each entry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMatcher sets the address containment test used on a miss.
func WithMatcher(m netaddr.Matcher) Option {
	return func(c *Cache) {
		if m != nil {
			c.matcher = m
		}
	}
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Cache) {
		c.metrics = metrics
	}
}

// New creates a cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		matcher: netaddr.CIDRMatcher{},
		now:     time.Now,
		size:    DefaultSize,
		ttl:     DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = GetMetrics()
	}

	// size is always positive here, which is the only error condition.
	c.lru, _ = lru.NewWithEvict[string, cachedMatch](c.size, func(string, cachedMatch) {
		c.metrics.evictionsTotal.Inc()
	})
	return c
}

// Key builds the cache key for a declared address list and a client
// address.
func Key(specs []string, addr string) string {
	return strings.Join(specs, ",") + ":" + addr
}

// Match reports whether addr is contained in any of specs, consulting the
// cache first.
func (c *Cache) Match(specs []string, addr string) bool {
	key := Key(specs, addr)
	now := c.now()
	if entry, ok := c.lru.Get(key); ok && now.Before(entry.expires) {
		c.metrics.hitsTotal.Inc()
		return entry.matched
	}
	c.metrics.missesTotal.Inc()

	matched := false
	for _, spec := range specs {
		if c.matcher.Contains(spec, addr) {
			matched = true
			break
		}
	}
	c.lru.Add(key, cachedMatch{matched: matched, expires: now.Add(c.ttl)})
	return matched
}

// Len returns the number of cached entries, including entries that have
// expired but not yet been overwritten or evicted.
func (c *Cache) Len() int {
	return c.lru.Len()
}
