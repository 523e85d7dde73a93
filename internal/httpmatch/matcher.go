package httpmatch

import (
	"github.com/vyrodovalexey/avaroute/internal/router"
)

// Matcher is a route matcher whose FindRoute applies the host, remote
// address and expression constraints of each route.
type Matcher struct {
	*router.Matcher
	pipeline *Pipeline
}

// CachedAddresses returns the number of remote address results held by
// the matcher's cache, including expired entries not yet replaced.
func (m *Matcher) CachedAddresses() int {
	return m.pipeline.cache.Len()
}

// New builds a Matcher. An expression that does not compile fails the
// build.
func New(defs []router.Definition, opts ...Option) (*Matcher, error) {
	o := buildOptions(opts)

	p, err := newPipeline(defs, o)
	if err != nil {
		return nil, err
	}

	routerOpts := []router.Option{
		router.WithLogger(o.logger),
		router.WithPredicate(p.Match),
	}
	if o.routerMetrics != nil {
		routerOpts = append(routerOpts, router.WithMetrics(o.routerMetrics))
	}
	rm, err := router.New(defs, routerOpts...)
	if err != nil {
		return nil, err
	}
	return &Matcher{Matcher: rm, pipeline: p}, nil
}
