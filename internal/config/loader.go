package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// Loader reads route tables and query files.
type Loader struct {
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader that substitutes from the process
// environment.
func NewLoader() *Loader {
	return &Loader{lookupEnv: os.LookupEnv}
}

// LoadRouteFile loads, defaults and validates a route table from path.
func LoadRouteFile(path string) (*RouteFile, error) {
	return NewLoader().LoadRouteFile(path)
}

// LoadRouteFileFromReader loads, defaults and validates a route table
// from r.
func LoadRouteFileFromReader(r io.Reader) (*RouteFile, error) {
	return NewLoader().LoadRouteFileFromReader(r)
}

// LoadRouteFile loads, defaults and validates a route table from path.
func (l *Loader) LoadRouteFile(path string) (*RouteFile, error) {
	data, err := l.readFile(path)
	if err != nil {
		return nil, err
	}
	return l.parseRouteFile(data)
}

// LoadRouteFileFromReader loads, defaults and validates a route table
// from r.
func (l *Loader) LoadRouteFileFromReader(r io.Reader) (*RouteFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read route table: %w", err)
	}
	return l.parseRouteFile(data)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // path is validated via filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

func (l *Loader) parseRouteFile(data []byte) (*RouteFile, error) {
	var file RouteFile
	if err := l.decode(data, &file); err != nil {
		return nil, err
	}

	file.Settings.applyDefaults()

	if err := ValidateRouteFile(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

// decode substitutes environment variables and strictly decodes YAML
// into out. Unknown fields are rejected.
func (l *Loader) decode(data []byte, out any) error {
	content := l.substituteEnvVars(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(content)))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return fmt.Errorf("failed to parse YAML: empty document")
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment variable values.
func (l *Loader) substituteEnvVars(content string) string {
	// Handle escaped dollar signs first
	content = strings.ReplaceAll(content, "$$", "\x00ESCAPED_DOLLAR\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""
		if len(submatches) >= 3 {
			defaultValue = submatches[2]
		}

		if value, exists := l.lookupEnv(varName); exists {
			return value
		}
		return defaultValue
	})

	return strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")
}
