// Package metrics exposes the proxy's own Prometheus metrics: request
// counts and latencies per route, backend scrape failures by kind, response
// cache hit rates, and filter-state bookkeeping. The metrics are served on
// a dedicated listener, separate from the proxied routes, so scraping the
// proxy never competes with traffic through it.
package metrics
