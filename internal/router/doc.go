// Package router selects the single best route for a request from an
// immutable index built once from a list of route definitions.
//
// Each definition declares one or more path patterns. Every pattern
// becomes an Entry stored in one of three indices chosen by the pattern
// shape:
//
//   - equals: literal paths, looked up by exact key
//   - prefix: patterns with a wildcard after a literal prefix, stored in
//     a radix tree keyed by that prefix
//   - suffix: patterns starting with a wildcard, stored reversed in a
//     second radix tree
//
// Entries sharing a key live in one slot, sorted once by specificity:
// longer patterns first, then a concrete method before "ALL", then a
// concrete host before a wildcard host.
//
// # Usage
//
//	m, err := router.New([]router.Definition{
//	    {Paths: []string{"/api/users/*"}, Methods: []string{"GET"}, Meta: "users"},
//	    {Paths: []string{"/api/**"}, Meta: "api"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if e := m.FindRoute(&router.Request{Path: "/api/users/1", Method: "GET"}); e != nil {
//	    // e.Route.Meta == "users"
//	}
//
// A Matcher performs no mutation after New returns and is safe for
// concurrent use.
package router
