package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for route lookups.
type Metrics struct {
	lookupsTotal      *prometheus.CounterVec
	candidates        prometheus.Histogram
	indexCorruptTotal *prometheus.CounterVec
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

// NewMetrics creates route lookup metrics registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		lookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "avaroute",
				Subsystem: "router",
				Name:      "lookups_total",
				Help:      "Total number of route lookups by result",
			},
			[]string{"result"},
		),
		candidates: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "avaroute",
				Subsystem: "router",
				Name:      "candidates",
				Help:      "Number of path and method candidates per lookup",
				Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
			},
		),
		indexCorruptTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "avaroute",
				Subsystem: "router",
				Name:      "index_corrupt_total",
				Help:      "Total number of slot handles found outside the slot arena",
			},
			[]string{"index"},
		),
	}
}

// Init pre-initializes label combinations so the series appear before
// the first lookup.
func (m *Metrics) Init() {
	for _, result := range []string{resultMatched, resultNoMatch} {
		m.lookupsTotal.WithLabelValues(result)
	}
	for _, index := range []string{"equals", "prefix", "suffix"} {
		m.indexCorruptTotal.WithLabelValues(index)
	}
}

const (
	resultMatched = "matched"
	resultNoMatch = "no_match"
)
