package httpmatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/vyrodovalexey/avaroute/internal/addrcache"
	"github.com/vyrodovalexey/avaroute/internal/expr"
	"github.com/vyrodovalexey/avaroute/internal/netaddr"
	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/router"
	"github.com/vyrodovalexey/avaroute/internal/util"
)

// Pipeline is the host, remote address and expression filter applied to
// each path and method candidate. It is safe for concurrent use.
type Pipeline struct {
	exprs  [][]evaluator
	cache  *addrcache.Cache
	logger observability.Logger
}

// evaluator is a compiled filter expression.
type evaluator interface {
	Eval(vars expr.Context) (bool, error)
	Source() string
}

type options struct {
	logger        observability.Logger
	addrMatcher   netaddr.Matcher
	cacheSize     int
	cacheTTL      time.Duration
	cacheMetrics  *addrcache.Metrics
	costLimit     uint64
	routerMetrics *router.Metrics
}

// Option is a functional option for the pipeline and matcher.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAddressMatcher replaces the CIDR containment test.
func WithAddressMatcher(m netaddr.Matcher) Option {
	return func(o *options) {
		o.addrMatcher = m
	}
}

// WithCacheSize sets the address cache capacity.
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// WithCacheTTL sets the address cache entry lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.cacheTTL = ttl
	}
}

// WithCacheMetrics sets the address cache metrics.
func WithCacheMetrics(metrics *addrcache.Metrics) Option {
	return func(o *options) {
		o.cacheMetrics = metrics
	}
}

// WithCostLimit sets the per-evaluation expression cost limit.
func WithCostLimit(limit uint64) Option {
	return func(o *options) {
		o.costLimit = limit
	}
}

// WithRouterMetrics sets the route index metrics.
func WithRouterMetrics(metrics *router.Metrics) Option {
	return func(o *options) {
		o.routerMetrics = metrics
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		logger:    observability.NopLogger(),
		cacheSize: addrcache.DefaultSize,
		cacheTTL:  addrcache.DefaultTTL,
		costLimit: expr.DefaultCostLimit,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// newPipeline compiles the filter expressions of defs. The pipeline
// expects entries whose Route.Index refers to a position in defs.
func newPipeline(defs []router.Definition, o *options) (*Pipeline, error) {
	engine, err := expr.NewEngine(expr.WithCostLimit(o.costLimit))
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		exprs:  make([][]evaluator, len(defs)),
		logger: o.logger,
	}

	for i := range defs {
		for _, src := range defs[i].Exprs {
			x, err := engine.Compile(src)
			if err != nil {
				return nil, util.NewRouteError(i, defs[i].ID, err)
			}
			p.exprs[i] = append(p.exprs[i], x)
		}
	}

	cacheOpts := []addrcache.Option{
		addrcache.WithSize(o.cacheSize),
		addrcache.WithTTL(o.cacheTTL),
		addrcache.WithMatcher(o.addrMatcher),
	}
	if o.cacheMetrics != nil {
		cacheOpts = append(cacheOpts, addrcache.WithMetrics(o.cacheMetrics))
	}
	p.cache = addrcache.New(cacheOpts...)

	return p, nil
}

// Match reports whether req satisfies every constraint declared by the
// route of e.
func (p *Pipeline) Match(e *router.Entry, req *router.Request) bool {
	route := e.Route

	if len(route.Hosts) > 0 && !MatchHost(route.Hosts, req.Host()) {
		return false
	}

	if len(route.RemoteAddrs) > 0 && !p.matchRemoteAddr(route.RemoteAddrs, req.RemoteAddr) {
		return false
	}

	if exprs := p.compiled(route); len(exprs) > 0 && !p.matchExprs(route, exprs, req) {
		return false
	}

	return true
}

func (p *Pipeline) compiled(route *router.Route) []evaluator {
	if route.Index < 0 || route.Index >= len(p.exprs) {
		return nil
	}
	return p.exprs[route.Index]
}

func (p *Pipeline) matchRemoteAddr(specs []string, addr string) bool {
	if addr == "" {
		return false
	}
	return p.cache.Match(specs, addr)
}

// matchExprs reports whether any expression holds. An expression that
// fails to evaluate counts as false; a panic fails the whole stage.
func (p *Pipeline) matchExprs(route *router.Route, exprs []evaluator, req *router.Request) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("filter expression evaluation panicked",
				observability.String("route", route.Name()),
				observability.String("panic", fmt.Sprint(r)),
			)
			matched = false
		}
	}()

	vars := BuildContext(req)
	for _, x := range exprs {
		ok, err := x.Eval(vars)
		if err != nil {
			p.logger.Debug("filter expression evaluation failed",
				observability.String("route", route.Name()),
				observability.String("expr", x.Source()),
				observability.Error(err),
			)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// BuildContext returns the expression variables for req: "method" and
// "path", then every argument under its lower-cased name, then every
// header under its lower-cased name with '-' replaced by '_'. Argument and
// header values that parse as numbers become numbers. A header overrides
// an argument of the same name.
func BuildContext(req *router.Request) expr.Context {
	vars := make(expr.Context, 2+len(req.Args)+len(req.Headers))
	vars.SetString("method", req.Method)
	vars.SetString("path", req.Path)
	for k, v := range req.Args {
		vars.Set(strings.ToLower(k), v)
	}
	for k, v := range req.Headers {
		vars.Set(HeaderVar(k), v)
	}
	return vars
}

// HeaderVar returns the expression variable name for a header name.
func HeaderVar(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}
