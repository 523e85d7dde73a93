// Package httpmatch adds request-aware filtering on top of the path and
// method index in package router.
//
// A route may declare hosts, remote addresses and filter expressions.
// Each declared constraint must hold for the route to match; a route that
// declares none of them is accepted on path and method alone.
package httpmatch
