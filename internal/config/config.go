package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/avaroute/internal/addrcache"
	"github.com/vyrodovalexey/avaroute/internal/expr"
	"github.com/vyrodovalexey/avaroute/internal/httpmatch"
	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/router"
)

// Route table identification.
const (
	APIVersion = "avaroute.io/v1"
	Kind       = "RouteTable"
)

// RouteFile is the root of a route table document.
type RouteFile struct {
	APIVersion string        `yaml:"apiVersion" json:"apiVersion"`
	Kind       string        `yaml:"kind" json:"kind"`
	Settings   Settings      `yaml:"settings,omitempty" json:"settings,omitempty"`
	Routes     []RouteConfig `yaml:"routes" json:"routes"`
}

// RouteConfig is one route definition.
type RouteConfig struct {
	ID          string     `yaml:"id,omitempty" json:"id,omitempty"`
	Paths       StringList `yaml:"paths" json:"paths"`
	Methods     StringList `yaml:"methods,omitempty" json:"methods,omitempty"`
	Hosts       StringList `yaml:"hosts,omitempty" json:"hosts,omitempty"`
	RemoteAddrs StringList `yaml:"remoteAddrs,omitempty" json:"remoteAddrs,omitempty"`
	Exprs       StringList `yaml:"exprs,omitempty" json:"exprs,omitempty"`
	Meta        any        `yaml:"meta,omitempty" json:"meta,omitempty"`
}

// Settings tunes the matcher built from a route table.
type Settings struct {
	AddressCache AddressCacheSettings `yaml:"addressCache,omitempty" json:"addressCache,omitempty"`
	Expression   ExpressionSettings   `yaml:"expression,omitempty" json:"expression,omitempty"`
	Log          LogSettings          `yaml:"log,omitempty" json:"log,omitempty"`
}

// AddressCacheSettings configures the remote address cache.
type AddressCacheSettings struct {
	Size int      `yaml:"size,omitempty" json:"size,omitempty"`
	TTL  Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// ExpressionSettings configures filter expression evaluation.
type ExpressionSettings struct {
	CostLimit uint64 `yaml:"costLimit,omitempty" json:"costLimit,omitempty"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// DefaultSettings returns the settings used for omitted fields.
func DefaultSettings() Settings {
	return Settings{
		AddressCache: AddressCacheSettings{
			Size: addrcache.DefaultSize,
			TTL:  Duration(addrcache.DefaultTTL),
		},
		Expression: ExpressionSettings{
			CostLimit: expr.DefaultCostLimit,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "json",
		},
	}
}

// applyDefaults fills zero-valued settings.
func (s *Settings) applyDefaults() {
	def := DefaultSettings()
	if s.AddressCache.Size == 0 {
		s.AddressCache.Size = def.AddressCache.Size
	}
	if s.AddressCache.TTL == 0 {
		s.AddressCache.TTL = def.AddressCache.TTL
	}
	if s.Expression.CostLimit == 0 {
		s.Expression.CostLimit = def.Expression.CostLimit
	}
	if s.Log.Level == "" {
		s.Log.Level = def.Log.Level
	}
	if s.Log.Format == "" {
		s.Log.Format = def.Log.Format
	}
}

// Options converts the settings to matcher options.
func (s Settings) Options() []httpmatch.Option {
	return []httpmatch.Option{
		httpmatch.WithCacheSize(s.AddressCache.Size),
		httpmatch.WithCacheTTL(s.AddressCache.TTL.Duration()),
		httpmatch.WithCostLimit(s.Expression.CostLimit),
	}
}

// LogConfig converts the log settings to a logger configuration.
func (s Settings) LogConfig() observability.LogConfig {
	cfg := observability.DefaultLogConfig()
	if s.Log.Level != "" {
		cfg.Level = s.Log.Level
	}
	if s.Log.Format != "" {
		cfg.Format = s.Log.Format
	}
	return cfg
}

// Definitions converts the routes to matcher input, preserving order.
func (f *RouteFile) Definitions() []router.Definition {
	defs := make([]router.Definition, 0, len(f.Routes))
	for i := range f.Routes {
		r := &f.Routes[i]
		defs = append(defs, router.Definition{
			ID:          r.ID,
			Paths:       r.Paths,
			Methods:     r.Methods,
			Hosts:       r.Hosts,
			RemoteAddrs: r.RemoteAddrs,
			Exprs:       r.Exprs,
			Meta:        r.Meta,
		})
	}
	return defs
}

// StringList is a list of strings that also accepts a single scalar.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}
