package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errNoQuery = errors.New("either -path or -queries is required")

// cliFlags holds command line flags.
type cliFlags struct {
	routesPath  string
	queriesPath string
	path        string
	method      string
	host        string
	remoteAddr  string
	headers     keyValueFlag
	args        keyValueFlag
	all         bool
	metrics     bool
	logLevel    string
	logFormat   string
	showVersion bool
}

// keyValueFlag collects repeated name=value flags.
type keyValueFlag map[string]string

// String implements flag.Value.
func (f keyValueFlag) String() string {
	pairs := make([]string, 0, len(f))
	for k, v := range f {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

// Set implements flag.Value.
func (f keyValueFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	f[k] = v
	return nil
}

// parseFlags parses command line flags.
func parseFlags(args []string, output io.Writer) (cliFlags, error) {
	fs := flag.NewFlagSet("routematch", flag.ContinueOnError)
	fs.SetOutput(output)

	flags := cliFlags{
		headers: keyValueFlag{},
		args:    keyValueFlag{},
	}

	fs.StringVar(&flags.routesPath, "routes", getEnvOrDefault("ROUTEMATCH_ROUTES_PATH", "routes.yaml"),
		"Path to the route table")
	fs.StringVar(&flags.queriesPath, "queries", getEnvOrDefault("ROUTEMATCH_QUERIES_PATH", ""),
		"Path to a YAML file of queries")
	fs.StringVar(&flags.path, "path", "", "Request path")
	fs.StringVar(&flags.method, "method", "GET", "Request method")
	fs.StringVar(&flags.host, "host", "", "Request host header")
	fs.StringVar(&flags.remoteAddr, "remote-addr", "", "Request client address")
	fs.Var(flags.headers, "header", "Request header as name=value (repeatable)")
	fs.Var(flags.args, "arg", "Request argument as name=value (repeatable)")
	fs.BoolVar(&flags.all, "all", getEnvBool("ROUTEMATCH_ALL", false),
		"Also report every path and method candidate")
	fs.BoolVar(&flags.metrics, "metrics", getEnvBool("ROUTEMATCH_METRICS", false),
		"Print matcher metrics to stderr when done")
	fs.StringVar(&flags.logLevel, "log-level", getEnvOrDefault("ROUTEMATCH_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error); defaults to the route table setting")
	fs.StringVar(&flags.logFormat, "log-format", getEnvOrDefault("ROUTEMATCH_LOG_FORMAT", ""),
		"Log format (json, console); defaults to the route table setting")
	fs.BoolVar(&flags.showVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return flags, err
	}

	if !flags.showVersion && flags.path == "" && flags.queriesPath == "" {
		return flags, errNoQuery
	}
	return flags, nil
}
