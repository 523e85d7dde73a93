package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/avaroute/internal/addrcache"
	"github.com/vyrodovalexey/avaroute/internal/config"
	"github.com/vyrodovalexey/avaroute/internal/httpmatch"
	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/router"
)

// result is the JSON output for one query.
type result struct {
	QueryID    string        `json:"queryId"`
	Name       string        `json:"name,omitempty"`
	Path       string        `json:"path"`
	Method     string        `json:"method"`
	Matched    bool          `json:"matched"`
	Route      *routeResult  `json:"route,omitempty"`
	Candidates []routeResult `json:"candidates,omitempty"`
}

// routeResult describes one route entry.
type routeResult struct {
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Pattern string `json:"pattern"`
	Type    string `json:"type"`
	Meta    any    `json:"meta,omitempty"`
}

func newRouteResult(e *router.Entry) routeResult {
	return routeResult{
		Index:   e.Route.Index,
		ID:      e.Route.ID,
		Pattern: e.Pattern.Path,
		Type:    e.Pattern.Type.String(),
		Meta:    e.Route.Meta,
	}
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		if errors.Is(err, errNoQuery) {
			fmt.Fprintf(stderr, "%v\n", err)
		}
		return exitUsage
	}

	if flags.showVersion {
		printVersion(stdout)
		return exitOK
	}

	table, err := config.LoadRouteFile(flags.routesPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load route table: %v\n", err)
		return exitError
	}

	logger, err := initLogger(flags, table.Settings)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitError
	}
	defer func() { _ = logger.Sync() }()

	queries, err := loadQueries(flags)
	if err != nil {
		logger.Error("failed to load queries", observability.Error(err))
		return exitError
	}

	registry := prometheus.NewRegistry()
	opts := append(table.Settings.Options(),
		httpmatch.WithLogger(logger),
		httpmatch.WithRouterMetrics(router.NewMetrics(registry)),
		httpmatch.WithCacheMetrics(addrcache.NewMetrics(registry)),
	)
	m, err := httpmatch.New(table.Definitions(), opts...)
	if err != nil {
		logger.Error("failed to build route matcher", observability.Error(err))
		return exitError
	}

	promauto.With(registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "avaroute",
		Subsystem: "addr_cache",
		Name:      "entries",
		Help:      "Number of cached remote address results",
	}, func() float64 {
		return float64(m.CachedAddresses())
	})

	counts := m.Counts()
	logger.Info("route table loaded",
		observability.String("routes", flags.routesPath),
		observability.Int("definitions", len(m.Routes())),
		observability.Int("equals", counts.Equals),
		observability.Int("prefix", counts.Prefix),
		observability.Int("suffix", counts.Suffix),
	)

	enc := json.NewEncoder(stdout)
	for i := range queries {
		if err := ctx.Err(); err != nil {
			logger.Warn("interrupted", observability.Int("remaining", len(queries)-i))
			return exitError
		}

		res := evaluate(ctx, m.Matcher, &queries[i], flags.all, logger)
		if err := enc.Encode(res); err != nil {
			logger.Error("failed to write result", observability.Error(err))
			return exitError
		}
	}

	if flags.metrics {
		if err := observability.WriteMetrics(stderr, registry); err != nil {
			logger.Error("failed to write metrics", observability.Error(err))
			return exitError
		}
	}

	return exitOK
}

// evaluate matches one query.
func evaluate(
	ctx context.Context,
	m *router.Matcher,
	q *config.Query,
	all bool,
	logger observability.Logger,
) result {
	req := q.Request()
	res := result{
		QueryID: uuid.NewString(),
		Name:    q.Name,
		Path:    req.Path,
		Method:  req.Method,
	}

	if all {
		for _, e := range m.FindAllRoutes(req.Path, req.Method) {
			res.Candidates = append(res.Candidates, newRouteResult(e))
		}
	}

	if e := m.FindRoute(req); e != nil {
		rr := newRouteResult(e)
		res.Matched = true
		res.Route = &rr
	}

	fields := []observability.Field{
		observability.String("path", res.Path),
		observability.String("method", res.Method),
		observability.Bool("matched", res.Matched),
	}
	if res.Route != nil {
		fields = append(fields, observability.String("route", fmt.Sprintf("%s %s", routeName(res.Route), res.Route.Pattern)))
	}
	logger.WithContext(observability.ContextWithQueryID(ctx, res.QueryID)).Debug("query evaluated", fields...)

	return res
}

func routeName(r *routeResult) string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("#%d", r.Index)
}

// loadQueries returns the queries from -queries, or the single query
// described by the request flags.
func loadQueries(flags cliFlags) ([]config.Query, error) {
	if flags.queriesPath != "" {
		file, err := config.LoadQueryFile(flags.queriesPath)
		if err != nil {
			return nil, err
		}
		return file.Queries, nil
	}

	headers := make(map[string]string, len(flags.headers)+1)
	for k, v := range flags.headers {
		headers[k] = v
	}
	if flags.host != "" {
		headers["host"] = flags.host
	}

	return []config.Query{{
		Path:       flags.path,
		Method:     flags.method,
		Headers:    headers,
		RemoteAddr: flags.remoteAddr,
		Args:       flags.args,
	}}, nil
}

// initLogger builds the logger from flags, falling back to the route
// table settings.
func initLogger(flags cliFlags, settings config.Settings) (observability.Logger, error) {
	cfg := settings.LogConfig()
	if flags.logLevel != "" {
		cfg.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Format = flags.logFormat
	}

	logger, err := observability.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	observability.SetGlobalLogger(logger)
	return logger, nil
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "routematch version %s\n", version)
	fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}
