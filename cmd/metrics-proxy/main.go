// Metrics-proxy is a filtering reverse proxy for Prometheus scrape targets.
//
// It sits between a Prometheus server and one or more exporters, fetches
// the exporter's metrics on every scrape, and rewrites the snapshot
// according to configured label filter rules before answering. Rules can
// drop series, keep series, or reduce the time resolution of noisy series
// so that unchanged values are not re-reported on every scrape.
//
// Usage:
//
//	# Start with a configuration file
//	metrics-proxy run --config /etc/metrics-proxy/config.yaml
//
//	# Check a configuration file without serving
//	metrics-proxy validate --config /etc/metrics-proxy/config.yaml
//
//	# Show version information
//	metrics-proxy version
package main

func main() {
	Execute()
}
