package router

import (
	"strconv"

	"github.com/vyrodovalexey/avaroute/internal/pattern"
)

// MethodAll is the method wildcard accepting every request method.
const MethodAll = "ALL"

// Definition is the construction input for one route.
type Definition struct {
	// ID optionally names the route in logs and errors.
	ID string
	// Paths lists the path patterns. At least one is required.
	Paths []string
	// Methods lists accepted request methods. Empty means MethodAll.
	Methods []string
	// Hosts lists accepted hosts; "*.example.com" accepts subdomains.
	Hosts []string
	// RemoteAddrs lists accepted client addresses or CIDR ranges.
	RemoteAddrs []string
	// Exprs lists filter expressions; any one evaluating true passes.
	Exprs []string
	// Meta is returned to the caller untouched when the route matches.
	Meta any
}

// Route is a compiled definition shared by all of its entries.
type Route struct {
	Index       int
	ID          string
	Methods     []string
	Hosts       []string
	RemoteAddrs []string
	Exprs       []string
	Meta        any

	anyMethod bool
}

func newRoute(index int, def *Definition) *Route {
	methods := def.Methods
	if len(methods) == 0 {
		methods = []string{MethodAll}
	}

	r := &Route{
		Index:       index,
		ID:          def.ID,
		Methods:     methods,
		Hosts:       def.Hosts,
		RemoteAddrs: def.RemoteAddrs,
		Exprs:       def.Exprs,
		Meta:        def.Meta,
	}
	for _, m := range methods {
		if m == MethodAll {
			r.anyMethod = true
			break
		}
	}
	return r
}

// AcceptsMethod reports whether the route accepts method.
func (r *Route) AcceptsMethod(method string) bool {
	if r.anyMethod {
		return true
	}
	for _, m := range r.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Name returns the route ID, or its position when no ID was given.
func (r *Route) Name() string {
	if r.ID != "" {
		return r.ID
	}
	return "#" + strconv.Itoa(r.Index)
}

// Entry pairs a route with one of its declared path patterns.
type Entry struct {
	Route   *Route
	Pattern *pattern.Pattern
}

// Request is the routing-relevant view of an incoming request.
type Request struct {
	Path       string
	Method     string
	Headers    map[string]string
	RemoteAddr string
	Args       map[string]string
}

// Host returns the "host" header, falling back to the canonical "Host"
// key. Other spellings are ignored so the result never depends on map
// iteration order.
func (r *Request) Host() string {
	if h, ok := r.Headers["host"]; ok {
		return h
	}
	return r.Headers["Host"]
}
