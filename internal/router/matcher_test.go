package router

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/util"
)

func ids(entries []*Entry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Route.Meta.(int))
	}
	return out
}

func newTestMatcher(t *testing.T, defs []Definition, opts ...Option) *Matcher {
	t.Helper()

	opts = append([]Option{WithMetrics(NewMetrics(prometheus.NewRegistry()))}, opts...)
	m, err := New(defs, opts...)
	require.NoError(t, err)
	return m
}

func TestNew_EmptyPaths(t *testing.T) {
	t.Parallel()

	_, err := New([]Definition{
		{Paths: []string{"/ok"}, Meta: 1},
		{ID: "broken", Meta: 2},
	}, WithMetrics(NewMetrics(prometheus.NewRegistry())))

	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrEmptyPaths)

	var routeErr *util.RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Equal(t, 1, routeErr.Index)
	assert.Equal(t, "broken", routeErr.ID)
}

func TestNew_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := New([]Definition{{Paths: []string{"/bad/\xff*"}}},
		WithMetrics(NewMetrics(prometheus.NewRegistry())))

	require.Error(t, err)
	assert.ErrorIs(t, err, &util.RouteError{})
}

func TestNew_DefaultMethod(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, []Definition{{Paths: []string{"/a"}, Meta: 1}})

	routes := m.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, []string{MethodAll}, routes[0].Methods)
	assert.Equal(t, "#0", routes[0].Name())
}

func TestMatcher_Counts(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, []Definition{
		{Paths: []string{"/a", "/b"}, Meta: 1},
		{Paths: []string{"/a/*", "/c/**"}, Meta: 2},
		{Paths: []string{"**.jpg"}, Meta: 3},
	})

	assert.Equal(t, Counts{Equals: 2, Prefix: 2, Suffix: 1}, m.Counts())
}

func TestNew_LogsIndexSizes(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	_, err := New([]Definition{
		{Paths: []string{"/a", "/b"}, Meta: 1},
		{Paths: []string{"/a/*", "/a/**", "/c/**"}, Meta: 2},
		{Paths: []string{"**.jpg", "*.jpg"}, Meta: 3},
	}, WithLogger(observability.NewLoggerFromZap(zap.New(core))),
		WithMetrics(NewMetrics(prometheus.NewRegistry())))
	require.NoError(t, err)

	built := logs.FilterMessage("route matcher built").All()
	require.Len(t, built, 1)
	fields := built[0].ContextMap()
	assert.EqualValues(t, 3, fields["prefix"])
	assert.EqualValues(t, 2, fields["prefix_keys"])
	assert.EqualValues(t, 2, fields["suffix"])
	assert.EqualValues(t, 1, fields["suffix_keys"])
}

func TestMatcher_FindAllRoutes(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, []Definition{
		{Paths: []string{"/api/users"}, Meta: 1},
		{Paths: []string{"/api/users"}, Meta: 2},
		{Paths: []string{"/api/users/*"}, Meta: 3},
		{Paths: []string{"/api/posts/**"}, Meta: 4},
		{Paths: []string{"/api/comments"}, Meta: 5},
		{Paths: []string{"/service/**", "/servicev2/**"}, Meta: 6},
		{Paths: []string{"/service/user/*"}, Meta: 7},
		{Paths: []string{"**.jpg", "*.png"}, Meta: 8},
		{Paths: []string{"**/test.jpg"}, Meta: 9},
		{Paths: []string{"/static/**"}, Meta: 10},
	})

	tests := []struct {
		name string
		path string
		want []int
	}{
		{name: "exact paths keep declaration order", path: "/api/users", want: []int{1, 2}},
		{name: "single wildcard", path: "/api/users/123", want: []int{3}},
		{name: "single wildcard stops at separator", path: "/api/users/123/x", want: []int{}},
		{name: "double wildcard", path: "/api/posts/2023", want: []int{4}},
		{name: "double wildcard nested", path: "/api/posts/2023/05/01", want: []int{4}},
		{name: "suffix in nested directory", path: "/2023/05/01.jpg", want: []int{8}},
		{name: "suffix at root", path: "01.png", want: []int{8}},
		{name: "suffix before prefix, deeper first", path: "/static/img/test.jpg", want: []int{9, 8, 10}},
		{name: "no match", path: "/api/nonexistent", want: []int{}},
		{name: "deeper prefix first", path: "/service/user/123", want: []int{7, 6}},
		{name: "second path of a route", path: "/servicev2/user/123", want: []int{6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ids(m.FindAllRoutes(tt.path, "")))
		})
	}
}

func TestMatcher_FindAllRoutes_AnyPath(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, []Definition{
		{Paths: []string{"/**"}, Meta: 10},
		{Paths: []string{"/api/users/*/posts"}, Meta: 11},
		{Paths: []string{"/api/users/**/comments"}, Meta: 12},
	})

	for _, path := range []string{"/users/123/posts", "/index", "/"} {
		assert.Equal(t, []int{10}, ids(m.FindAllRoutes(path, "GET")), path)
	}
}

func TestMatcher_FindAllRoutes_Methods(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, []Definition{
		{Paths: []string{"/api/**"}, Meta: 1},
		{Methods: []string{"POST"}, Paths: []string{"/**"}, Meta: 2},
		{Methods: []string{"ALL"}, Paths: []string{"/api/users"}, Meta: 5},
		{Methods: []string{"POST"}, Paths: []string{"/api/users"}, Meta: 6},
		{Methods: []string{"GET"}, Paths: []string{"/api/users"}, Meta: 7},
		{Methods: []string{"GET", "POST"}, Paths: []string{"/api/users/**"}, Meta: 8},
	})

	tests := []struct {
		name   string
		path   string
		method string
		want   []int
	}{
		{name: "no methods means all", path: "/api/posts", method: "GET", want: []int{1}},
		{name: "concrete method before ALL", path: "/api/users", method: "POST", want: []int{6, 5, 1, 2}},
		{name: "only ALL routes for other methods", path: "/api/users", method: "PUT", want: []int{5, 1}},
		{name: "multi method route", path: "/api/users/123", method: "GET", want: []int{8, 1}},
		{name: "non matching method", path: "/api/users", method: "DELETE", want: []int{5, 1}},
		{name: "global POST route", path: "/random/path", method: "POST", want: []int{2}},
		{name: "empty method", path: "/random/path", method: "", want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ids(m.FindAllRoutes(tt.path, tt.method)))
		})
	}
}

func TestMatcher_FindAllRoutes_WildcardDepth(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, []Definition{
		{Paths: []string{"/api/items"}, Meta: 1},
		{Paths: []string{"/api/items/*"}, Meta: 2},
		{Paths: []string{"/api/items/**"}, Meta: 3},
		{Paths: []string{"/api/users/**"}, Meta: 10},
		{Paths: []string{"/api/users/*/posts"}, Meta: 11},
		{Paths: []string{"/api/users/**/comments"}, Meta: 12},
	})

	assert.ElementsMatch(t, []int{2, 3}, ids(m.FindAllRoutes("/api/items/123", "GET")))
	assert.Equal(t, []int{3}, ids(m.FindAllRoutes("/api/items/123/456", "GET")))
	assert.Equal(t, []int{1}, ids(m.FindAllRoutes("/api/items", "GET")))
	assert.Equal(t, []int{11, 10}, ids(m.FindAllRoutes("/api/users/123/posts", "GET")))
	assert.Equal(t, []int{12, 10}, ids(m.FindAllRoutes("/api/users/123/profile/comments", "GET")))
}

func TestMatcher_FindAllRoutes_SuffixForms(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, []Definition{
		{Paths: []string{"**.jpg"}, Meta: 1},
		{Paths: []string{"*.jpg"}, Meta: 2},
	})

	for _, path := range []string{"/x/y/z.jpg", "z.jpg"} {
		assert.ElementsMatch(t, []int{1, 2}, ids(m.FindAllRoutes(path, "GET")), path)
	}
	assert.Empty(t, m.FindAllRoutes("/x/y/z.png", "GET"))
}

func TestMatcher_FindAllRoutes_EqualsIsByteIdentical(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, []Definition{{Paths: []string{"/Api/Users"}, Meta: 1}})

	assert.Equal(t, []int{1}, ids(m.FindAllRoutes("/Api/Users", "GET")))
	assert.Empty(t, m.FindAllRoutes("/api/users", "GET"))
	assert.Empty(t, m.FindAllRoutes("/Api/Users/", "GET"))
}

func TestMatcher_FindAllRoutes_AgreesWithSimpleMatch(t *testing.T) {
	t.Parallel()

	defs := []Definition{
		{Paths: []string{"/a"}, Meta: 1},
		{Paths: []string{"/a/*"}, Methods: []string{"GET"}, Meta: 2},
		{Paths: []string{"/a/**"}, Meta: 3},
		{Paths: []string{"**.css", "/a/*/c"}, Meta: 4},
		{Paths: []string{"*/c"}, Methods: []string{"POST"}, Meta: 5},
		{Paths: []string{"/**"}, Meta: 6},
	}
	m := newTestMatcher(t, defs)

	var all []*Entry
	for _, slot := range m.arena.slots {
		all = append(all, slot...)
	}

	paths := []string{"/a", "/a/b", "/a/b/c", "/a/b/c.css", "x.css", "/b/c", "/", ""}
	for _, path := range paths {
		for _, method := range []string{"GET", "POST"} {
			var want []int
			for _, e := range all {
				if SimpleMatch(e, path, method) {
					want = append(want, e.Route.Meta.(int))
				}
			}
			assert.ElementsMatch(t, want, ids(m.FindAllRoutes(path, method)), "%s %s", method, path)
		}
	}
}

func TestMatcher_FindRoute(t *testing.T) {
	t.Parallel()

	defs := []Definition{
		{Paths: []string{"/api/**"}, Meta: 1},
		{Paths: []string{"/api/users/*"}, Meta: 2},
	}

	t.Run("first candidate without predicate", func(t *testing.T) {
		t.Parallel()

		m := newTestMatcher(t, defs)
		e := m.FindRoute(&Request{Path: "/api/users/1", Method: "GET"})
		require.NotNil(t, e)
		assert.Equal(t, 2, e.Route.Meta)
	})

	t.Run("first candidate accepted by predicate", func(t *testing.T) {
		t.Parallel()

		m := newTestMatcher(t, defs, WithPredicate(func(e *Entry, _ *Request) bool {
			return e.Route.Meta.(int) == 1
		}))
		e := m.FindRoute(&Request{Path: "/api/users/1", Method: "GET"})
		require.NotNil(t, e)
		assert.Equal(t, 1, e.Route.Meta)
	})

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()

		m := newTestMatcher(t, defs)
		assert.Nil(t, m.FindRoute(&Request{Path: "/other", Method: "GET"}))
	})

	t.Run("candidates rejected by predicate", func(t *testing.T) {
		t.Parallel()

		m := newTestMatcher(t, defs, WithPredicate(func(*Entry, *Request) bool { return false }))
		assert.Nil(t, m.FindRoute(&Request{Path: "/api/users/1", Method: "GET"}))
	})
}

func TestMatcher_FindRoute_Metrics(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.Init()
	m, err := New([]Definition{{Paths: []string{"/a/*"}, Meta: 1}}, WithMetrics(metrics))
	require.NoError(t, err)

	m.FindRoute(&Request{Path: "/a/1"})
	m.FindRoute(&Request{Path: "/a/2"})
	m.FindRoute(&Request{Path: "/b"})

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.lookupsTotal.WithLabelValues(resultMatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.lookupsTotal.WithLabelValues(resultNoMatch)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.indexCorruptTotal.WithLabelValues("prefix")))
}

func TestMatcher_HandleOutOfRange(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	metrics := NewMetrics(prometheus.NewRegistry())
	m, err := New([]Definition{
		{Paths: []string{"/**"}, Meta: 1},
		{Paths: []string{"/bad/*"}, Meta: 2},
	}, WithLogger(observability.NewLoggerFromZap(zap.New(core))), WithMetrics(metrics))
	require.NoError(t, err)

	m.prefix.tree.Insert("/bad/", 99)

	assert.Equal(t, []int{1}, ids(m.FindAllRoutes("/bad/x", "GET")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "route index handle out of range", entries[0].Message)
	assert.EqualValues(t, 99, entries[0].ContextMap()["handle"])
	assert.Equal(t, "prefix", entries[0].ContextMap()["index"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.indexCorruptTotal.WithLabelValues("prefix")))
}

func TestMatcher_ConcurrentReads(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, []Definition{
		{Paths: []string{"/api/**"}, Meta: 1},
		{Paths: []string{"/api/users/*"}, Methods: []string{"GET"}, Meta: 2},
		{Paths: []string{"**.png"}, Meta: 3},
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				path := fmt.Sprintf("/api/users/%d", j)
				e := m.FindRoute(&Request{Path: path, Method: "GET"})
				if assert.NotNil(t, e) {
					assert.Equal(t, 2, e.Route.Meta)
				}
				assert.Equal(t, []int{3, 1}, ids(m.FindAllRoutes(path+".png", "PUT")))
			}
		}(i)
	}
	wg.Wait()
}

func TestRequest_Host(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a.com", (&Request{Headers: map[string]string{"host": "a.com"}}).Host())
	assert.Equal(t, "b.com", (&Request{Headers: map[string]string{"Host": "b.com"}}).Host())
	assert.Equal(t, "", (&Request{}).Host())
	assert.Equal(t, "", (&Request{Headers: map[string]string{"HOST": "c.com"}}).Host())
}

func TestRequest_Host_CaseVariants(t *testing.T) {
	t.Parallel()

	lower := &Request{Headers: map[string]string{"host": "a.com", "Host": "b.com", "HOST": "c.com"}}
	canonical := &Request{Headers: map[string]string{"Host": "b.com", "HOST": "c.com", "hOsT": "d.com"}}

	for i := 0; i < 100; i++ {
		require.Equal(t, "a.com", lower.Host())
		require.Equal(t, "b.com", canonical.Host())
	}
}
