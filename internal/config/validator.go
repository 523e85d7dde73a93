package config

import (
	"fmt"
	"strings"

	"github.com/vyrodovalexey/avaroute/internal/expr"
	"github.com/vyrodovalexey/avaroute/internal/netaddr"
	"github.com/vyrodovalexey/avaroute/internal/pattern"
	"github.com/vyrodovalexey/avaroute/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Is reports whether target is util.ErrConfigInvalid.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

// Validator validates route tables.
type Validator struct {
	errors ValidationErrors
	engine *expr.Engine
}

// NewValidator creates a new route table validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateRouteFile validates a route table.
func ValidateRouteFile(file *RouteFile) error {
	return NewValidator().Validate(file)
}

// Validate validates the route table and returns any errors.
func (v *Validator) Validate(file *RouteFile) error {
	v.errors = make(ValidationErrors, 0)

	if file == nil {
		v.addError("", "route table is nil")
		return v.errors
	}

	v.validateRoot(file)
	v.validateSettings(&file.Settings)
	v.validateRoutes(file.Routes)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// validateRoot validates root-level fields.
func (v *Validator) validateRoot(file *RouteFile) {
	if file.APIVersion == "" {
		v.addError("apiVersion", "apiVersion is required")
	} else if !strings.HasPrefix(file.APIVersion, "avaroute.io/") {
		v.addError("apiVersion", "apiVersion must start with 'avaroute.io/'")
	}

	if file.Kind == "" {
		v.addError("kind", "kind is required")
	} else if file.Kind != Kind {
		v.addError("kind", fmt.Sprintf("kind must be '%s'", Kind))
	}
}

func (v *Validator) validateSettings(s *Settings) {
	if s.AddressCache.Size < 0 {
		v.addError("settings.addressCache.size", "size must be non-negative")
	}
	if s.AddressCache.TTL < 0 {
		v.addError("settings.addressCache.ttl", "ttl must be non-negative")
	}
	if s.Log.Level != "" && !validLogLevels[s.Log.Level] {
		v.addError("settings.log.level", fmt.Sprintf("invalid log level: %s", s.Log.Level))
	}
	if s.Log.Format != "" && !validLogFormats[s.Log.Format] {
		v.addError("settings.log.format", fmt.Sprintf("invalid log format: %s", s.Log.Format))
	}

	engine, err := expr.NewEngine(expr.WithCostLimit(s.Expression.CostLimit))
	if err != nil {
		v.addError("settings.expression", err.Error())
		return
	}
	v.engine = engine
}

func (v *Validator) validateRoutes(routes []RouteConfig) {
	ids := make(map[string]bool)
	for i := range routes {
		v.validateSingleRoute(&routes[i], fmt.Sprintf("routes[%d]", i), ids)
	}
}

func (v *Validator) validateSingleRoute(route *RouteConfig, path string, ids map[string]bool) {
	if route.ID != "" {
		if ids[route.ID] {
			v.addError(path+".id", fmt.Sprintf("duplicate route id: %s", route.ID))
		}
		ids[route.ID] = true
	}

	v.validatePaths(route, path)
	v.validateMethods(route, path)
	v.validateHosts(route, path)
	v.validateRemoteAddrs(route, path)
	v.validateExprs(route, path)
}

func (v *Validator) validatePaths(route *RouteConfig, path string) {
	if len(route.Paths) == 0 {
		v.addError(path+".paths", util.ErrEmptyPaths.Error())
		return
	}
	for i, p := range route.Paths {
		itemPath := fmt.Sprintf("%s.paths[%d]", path, i)
		if p == "" {
			v.addError(itemPath, "path cannot be empty")
			continue
		}
		if _, err := pattern.Compile(p); err != nil {
			v.addError(itemPath, err.Error())
		}
	}
}

func (v *Validator) validateMethods(route *RouteConfig, path string) {
	for i, m := range route.Methods {
		if m == "" {
			v.addError(fmt.Sprintf("%s.methods[%d]", path, i), "method cannot be empty")
		}
	}
}

func (v *Validator) validateHosts(route *RouteConfig, path string) {
	for i, h := range route.Hosts {
		itemPath := fmt.Sprintf("%s.hosts[%d]", path, i)
		switch {
		case h == "":
			v.addError(itemPath, "host cannot be empty")
		case strings.Contains(strings.TrimPrefix(h, "*."), "*"):
			v.addError(itemPath, fmt.Sprintf("invalid host %q: only a leading '*.' wildcard is supported", h))
		}
	}
}

func (v *Validator) validateRemoteAddrs(route *RouteConfig, path string) {
	for i, a := range route.RemoteAddrs {
		if _, err := netaddr.ParseRange(a); err != nil {
			v.addError(fmt.Sprintf("%s.remoteAddrs[%d]", path, i), err.Error())
		}
	}
}

func (v *Validator) validateExprs(route *RouteConfig, path string) {
	for i, src := range route.Exprs {
		itemPath := fmt.Sprintf("%s.exprs[%d]", path, i)
		if strings.TrimSpace(src) == "" {
			v.addError(itemPath, "expression cannot be empty")
			continue
		}
		if v.engine == nil {
			continue
		}
		if _, err := v.engine.Compile(src); err != nil {
			v.addError(itemPath, err.Error())
		}
	}
}

// addError adds a validation error.
func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{
		Path:    path,
		Message: message,
	})
}
