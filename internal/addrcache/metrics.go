package addrcache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the address cache.
type Metrics struct {
	hitsTotal      prometheus.Counter
	missesTotal    prometheus.Counter
	evictionsTotal prometheus.Counter
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton metrics instance registered with the
// default Prometheus registerer.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = NewMetrics(prometheus.DefaultRegisterer)
	})
	return metricsInstance
}

// NewMetrics creates address cache metrics registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		hitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "avaroute",
				Subsystem: "addr_cache",
				Name:      "hits_total",
				Help:      "Total number of remote address cache hits",
			},
		),
		missesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "avaroute",
				Subsystem: "addr_cache",
				Name:      "misses_total",
				Help:      "Total number of remote address cache misses",
			},
		),
		evictionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "avaroute",
				Subsystem: "addr_cache",
				Name:      "evictions_total",
				Help:      "Total number of remote address cache capacity evictions",
			},
		),
	}
}
