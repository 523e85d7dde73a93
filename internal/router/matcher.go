package router

import (
	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/pattern"
	"github.com/vyrodovalexey/avaroute/internal/util"
)

// Predicate decides whether a path and method candidate also satisfies
// the rest of the request.
type Predicate func(e *Entry, req *Request) bool

// Counts reports how many entries each index holds.
type Counts struct {
	Equals int
	Prefix int
	Suffix int
}

// Matcher is an immutable route index.
type Matcher struct {
	routes []*Route
	arena  slotArena
	equals *routeIndex
	prefix *routeIndex
	suffix *routeIndex

	predicate Predicate
	logger    observability.Logger
	metrics   *Metrics
}

// Option is a functional option for the matcher.
type Option func(*Matcher)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(m *Matcher) {
		m.logger = logger
	}
}

// WithPredicate sets the predicate FindRoute applies to each candidate.
func WithPredicate(p Predicate) Option {
	return func(m *Matcher) {
		m.predicate = p
	}
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Matcher) {
		m.metrics = metrics
	}
}

// New builds a matcher from defs. A definition without paths, or with a
// path that cannot be compiled, fails the whole build.
func New(defs []Definition, opts ...Option) (*Matcher, error) {
	m := &Matcher{
		routes: make([]*Route, 0, len(defs)),
		equals: newHashIndex(),
		prefix: newTreeIndex(pattern.Prefix),
		suffix: newTreeIndex(pattern.Suffix),
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.metrics == nil {
		m.metrics = GetMetrics()
	}

	for i := range defs {
		if err := m.addRoute(i, &defs[i]); err != nil {
			return nil, err
		}
	}
	m.arena.sortAll()

	m.logger.Debug("route matcher built",
		observability.Int("routes", len(m.routes)),
		observability.Int("slots", len(m.arena.slots)),
		observability.Int("equals", m.equals.count),
		observability.Int("prefix", m.prefix.count),
		observability.Int("suffix", m.suffix.count),
		observability.Int("prefix_keys", m.prefix.tree.Len()),
		observability.Int("suffix_keys", m.suffix.tree.Len()),
	)

	return m, nil
}

func (m *Matcher) addRoute(index int, def *Definition) error {
	if len(def.Paths) == 0 {
		return util.NewRouteError(index, def.ID, util.ErrEmptyPaths)
	}

	route := newRoute(index, def)
	for _, path := range def.Paths {
		p, err := pattern.Compile(path)
		if err != nil {
			return util.NewRouteError(index, def.ID, err)
		}
		m.indexFor(p.Type).insert(&m.arena, &Entry{Route: route, Pattern: p})
	}
	m.routes = append(m.routes, route)
	return nil
}

func (m *Matcher) indexFor(t pattern.MatchType) *routeIndex {
	switch t {
	case pattern.Prefix:
		return m.prefix
	case pattern.Suffix:
		return m.suffix
	default:
		return m.equals
	}
}

// Routes returns the compiled routes in definition order.
func (m *Matcher) Routes() []*Route {
	routes := make([]*Route, len(m.routes))
	copy(routes, m.routes)
	return routes
}

// Counts returns the number of entries held by each index.
func (m *Matcher) Counts() Counts {
	return Counts{
		Equals: m.equals.count,
		Prefix: m.prefix.count,
		Suffix: m.suffix.count,
	}
}

// FindAllRoutes returns every entry whose pattern matches path and whose
// methods accept method. Equals entries come first, then suffix entries,
// then prefix entries; within the tree indices longer keys come first.
func (m *Matcher) FindAllRoutes(path, method string) []*Entry {
	var out []*Entry

	if m.equals.count > 0 {
		if h, ok := m.equals.keys.FindExact(path); ok {
			out = m.collect(out, m.equals, h, path, path, method)
		}
	}

	if m.suffix.count > 0 {
		reversed := pattern.Reverse(path)
		out = m.ascend(out, m.suffix, reversed, path, method)
	}

	if m.prefix.count > 0 {
		out = m.ascend(out, m.prefix, path, path, method)
	}

	m.metrics.candidates.Observe(float64(len(out)))
	return out
}

func (m *Matcher) ascend(out []*Entry, ri *routeIndex, subject, path, method string) []*Entry {
	c := ri.tree.Cursor(subject)
	for {
		h, ok := c.Ascend()
		if !ok {
			return out
		}
		out = m.collect(out, ri, h, subject, path, method)
	}
}

// collect appends the entries of slot h that match subject and method.
// A handle outside the arena is logged and skipped.
func (m *Matcher) collect(out []*Entry, ri *routeIndex, h int, subject, path, method string) []*Entry {
	slot, ok := m.arena.get(h)
	if !ok {
		m.metrics.indexCorruptTotal.WithLabelValues(ri.kind.String()).Inc()
		m.logger.Error("route index handle out of range",
			observability.String("index", ri.kind.String()),
			observability.Int("handle", h),
			observability.Int("slots", len(m.arena.slots)),
			observability.String("path", path),
		)
		return out
	}
	for _, e := range slot {
		if simpleMatch(e, subject, method) {
			out = append(out, e)
		}
	}
	return out
}

// FindRoute returns the first candidate of FindAllRoutes accepted by the
// configured predicate, or nil when there is none.
func (m *Matcher) FindRoute(req *Request) *Entry {
	for _, e := range m.FindAllRoutes(req.Path, req.Method) {
		if m.predicate == nil || m.predicate(e, req) {
			m.metrics.lookupsTotal.WithLabelValues(resultMatched).Inc()
			return e
		}
	}
	m.metrics.lookupsTotal.WithLabelValues(resultNoMatch).Inc()
	return nil
}

// SimpleMatch reports whether e accepts path and method, ignoring hosts,
// remote addresses and expressions.
func SimpleMatch(e *Entry, path, method string) bool {
	if e.Pattern.Type == pattern.Suffix {
		path = pattern.Reverse(path)
	}
	return simpleMatch(e, path, method)
}

// simpleMatch expects subject to be reversed for suffix entries.
func simpleMatch(e *Entry, subject, method string) bool {
	if !e.Route.AcceptsMethod(method) {
		return false
	}
	return e.Pattern.Match(subject)
}
