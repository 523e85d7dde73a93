package config

import (
	"fmt"
	"io"

	"github.com/vyrodovalexey/avaroute/internal/router"
)

// QueryFile is a batch of requests to evaluate against a route table.
type QueryFile struct {
	Queries []Query `yaml:"queries" json:"queries"`
}

// Query is one request to match.
type Query struct {
	Name       string            `yaml:"name,omitempty" json:"name,omitempty"`
	Path       string            `yaml:"path" json:"path"`
	Method     string            `yaml:"method,omitempty" json:"method,omitempty"`
	Headers    map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	RemoteAddr string            `yaml:"remoteAddr,omitempty" json:"remoteAddr,omitempty"`
	Args       map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
}

// Request converts the query to matcher input. The method defaults to GET.
func (q *Query) Request() *router.Request {
	method := q.Method
	if method == "" {
		method = "GET"
	}
	return &router.Request{
		Path:       q.Path,
		Method:     method,
		Headers:    q.Headers,
		RemoteAddr: q.RemoteAddr,
		Args:       q.Args,
	}
}

// LoadQueryFile loads a query file from path.
func LoadQueryFile(path string) (*QueryFile, error) {
	return NewLoader().LoadQueryFile(path)
}

// LoadQueryFile loads a query file from path.
func (l *Loader) LoadQueryFile(path string) (*QueryFile, error) {
	data, err := l.readFile(path)
	if err != nil {
		return nil, err
	}
	return l.parseQueryFile(data)
}

// LoadQueryFileFromReader loads a query file from r.
func (l *Loader) LoadQueryFileFromReader(r io.Reader) (*QueryFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	return l.parseQueryFile(data)
}

func (l *Loader) parseQueryFile(data []byte) (*QueryFile, error) {
	var file QueryFile
	if err := l.decode(data, &file); err != nil {
		return nil, err
	}

	var errs ValidationErrors
	for i := range file.Queries {
		if file.Queries[i].Path == "" {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("queries[%d].path", i),
				Message: "path is required",
			})
		}
	}
	if errs.HasErrors() {
		return nil, errs
	}
	return &file, nil
}
