// Package observability provides logging and metrics functionality
// for the route matcher.
//
// # Logging
//
// The Logger interface provides structured logging backed by zap:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("routes loaded",
//	    observability.String("file", "routes.yaml"),
//	    observability.Int("routes", 42),
//	)
//
// Library components default to NopLogger and only log when a logger
// is supplied through their options.
//
// # Metrics
//
// Components register their Prometheus collectors with promauto on the
// default registry. WriteMetrics renders any gatherer in the text
// exposition format:
//
//	err := observability.WriteMetrics(os.Stdout, prometheus.DefaultGatherer)
package observability
