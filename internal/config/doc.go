// Package config loads route tables from YAML.
//
// A route table lists route definitions plus optional settings for the
// address cache, expression evaluation and logging:
//
//	apiVersion: avaroute.io/v1
//	kind: RouteTable
//	settings:
//	  addressCache:
//	    size: 10000
//	    ttl: 1m
//	routes:
//	  - id: users
//	    paths: /api/users/**
//	    methods: [GET, POST]
//	    hosts: ["*.example.com"]
//	    remoteAddrs: [10.0.0.0/8]
//	    exprs: ['age >= 18']
//	    meta:
//	      upstream: users-v2
//
// Values may reference environment variables with ${VAR} or
// ${VAR:-default}; "$$" produces a literal "$".
//
//	table, err := config.LoadRouteFile("routes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := httpmatch.New(table.Definitions(), table.Settings.Options()...)
package config
