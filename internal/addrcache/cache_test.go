package addrcache

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/vyrodovalexey/avaroute/internal/netaddr"
)

type countingMatcher struct {
	calls atomic.Int64
}

func (m *countingMatcher) Contains(spec, addr string) bool {
	m.calls.Add(1)
	return netaddr.CIDRMatcher{}.Contains(spec, addr)
}

func newTestCache(opts ...Option) *Cache {
	opts = append([]Option{WithMetrics(NewMetrics(prometheus.NewRegistry()))}, opts...)
	return New(opts...)
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "127.0.0.1,10.0.0.0/8:10.1.1.1", Key([]string{"127.0.0.1", "10.0.0.0/8"}, "10.1.1.1"))
	assert.Equal(t, ":10.1.1.1", Key(nil, "10.1.1.1"))
}

func TestCache_Match(t *testing.T) {
	t.Parallel()

	c := newTestCache()
	specs := []string{"127.0.0.1", "192.168.1.1/24"}

	assert.True(t, c.Match(specs, "127.0.0.1"))
	assert.True(t, c.Match(specs, "192.168.1.77"))
	assert.False(t, c.Match(specs, "192.168.2.1"))
	assert.False(t, c.Match(specs, ""))
}

func TestCache_HitSkipsMatcher(t *testing.T) {
	t.Parallel()

	m := &countingMatcher{}
	metrics := NewMetrics(prometheus.NewRegistry())
	c := New(WithMatcher(m), WithMetrics(metrics))
	specs := []string{"192.168.1.1/24"}

	assert.True(t, c.Match(specs, "192.168.1.5"))
	assert.True(t, c.Match(specs, "192.168.1.5"))
	assert.Equal(t, int64(1), m.calls.Load())

	assert.False(t, c.Match(specs, "10.0.0.1"))
	assert.False(t, c.Match(specs, "10.0.0.1"))
	assert.Equal(t, int64(2), m.calls.Load())

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.hitsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.missesTotal))
	assert.Equal(t, 2, c.Len())
}

func TestCache_StopsAtFirstMatch(t *testing.T) {
	t.Parallel()

	m := &countingMatcher{}
	c := newTestCache(WithMatcher(m))

	assert.True(t, c.Match([]string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, "10.0.0.1"))
	assert.Equal(t, int64(1), m.calls.Load())
}

func TestCache_Capacity(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics(prometheus.NewRegistry())
	c := New(WithSize(2), WithMetrics(metrics))
	specs := []string{"10.0.0.0/8"}

	c.Match(specs, "10.0.0.1")
	c.Match(specs, "10.0.0.2")
	c.Match(specs, "10.0.0.3")

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.evictionsTotal))
}

func TestCache_TTL(t *testing.T) {
	t.Parallel()

	m := &countingMatcher{}
	metrics := NewMetrics(prometheus.NewRegistry())
	c := New(WithMatcher(m), WithTTL(time.Minute), WithMetrics(metrics))
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	specs := []string{"10.0.0.0/8"}

	c.Match(specs, "10.0.0.1")
	clock = clock.Add(59 * time.Second)
	c.Match(specs, "10.0.0.1")
	assert.Equal(t, int64(1), m.calls.Load())

	clock = clock.Add(time.Second)
	c.Match(specs, "10.0.0.1")
	assert.Equal(t, int64(2), m.calls.Load())
	assert.Equal(t, 1, c.Len())
	assert.Zero(t, testutil.ToFloat64(metrics.evictionsTotal))

	clock = clock.Add(30 * time.Second)
	c.Match(specs, "10.0.0.1")
	assert.Equal(t, int64(2), m.calls.Load())
}

func TestCache_TTLWallClock(t *testing.T) {
	t.Parallel()

	m := &countingMatcher{}
	c := newTestCache(WithMatcher(m), WithTTL(20*time.Millisecond))
	specs := []string{"10.0.0.0/8"}

	c.Match(specs, "10.0.0.1")
	time.Sleep(60 * time.Millisecond)
	c.Match(specs, "10.0.0.1")

	assert.Equal(t, int64(2), m.calls.Load())
}

// Not parallel: the goroutine count is only stable while no other test in
// the package is running.
func TestNew_StartsNoGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()

	caches := make([]*Cache, 0, 100)
	for i := 0; i < 100; i++ {
		c := newTestCache(WithTTL(time.Millisecond))
		c.Match([]string{"10.0.0.0/8"}, "10.0.0.1")
		caches = append(caches, c)
	}

	assert.LessOrEqual(t, runtime.NumGoroutine(), before+2)
	assert.Len(t, caches, 100)
}

func TestCache_IgnoresInvalidOptions(t *testing.T) {
	t.Parallel()

	c := newTestCache(WithSize(0), WithTTL(-time.Second), WithMatcher(nil))
	assert.Equal(t, DefaultSize, c.size)
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.IsType(t, netaddr.CIDRMatcher{}, c.matcher)
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := newTestCache(WithSize(8))
	specs := []string{"10.0.0.0/8"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				assert.True(t, c.Match(specs, "10.0.0.1"))
				assert.False(t, c.Match(specs, "11.0.0.1"))
			}
		}()
	}
	wg.Wait()
}
