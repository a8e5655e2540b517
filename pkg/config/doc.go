// Package config turns the declarative proxy configuration into a validated,
// immutable runtime topology.
//
// # Loading pipeline
//
// Configuration is processed in fixed stages, and is never partially applied:
//
//  1. Load: read and decode the YAML file, apply defaults (Load).
//  2. Resolve: per entry, validate the listen URL (port mandatory and
//     unprivileged, no credentials/query/fragment), load TLS material for
//     https listeners, validate the connect URL, compile filter rules.
//  3. Conflict check: over the whole proxies list in declaration order,
//     reject two routes claiming the same (address, path) and two routes
//     sharing an address with differing transports.
//  4. Fold: group routes by listen socket address into one Listener each
//     (Build).
//
// Any failure aborts with a structured error: per-field problems are
// collected into a ValidationError, conflicts surface as a ConflictError
// naming both 1-based entry positions.
//
// # Example configuration
//
//	proxies:
//	  - listen_on:
//	      url: http://0.0.0.0:9090/node
//	    connect_to:
//	      url: http://127.0.0.1:9100/metrics
//	      timeout: 10s
//	    cache_for: 5s
//	    label_filters:
//	      - regex: go_.*
//	        actions: [drop]
//	      - source_labels: [__name__, job]
//	        separator: ";"
//	        regex: up;billing
//	        actions:
//	          - reduce_time_resolution:
//	              resolution: 5m
//
// The resulting Topology is shared read-only by all request handlers; the
// only mutable state hanging off it is each route's cache entry and filter
// state table, both internally synchronized.
package config
