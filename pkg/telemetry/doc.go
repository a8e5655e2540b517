// Package telemetry provides observability for the proxy itself.
//
// # Components
//
//   - logging: structured logging with slog, JSON or text output
//   - metrics: Prometheus self-metrics served on a separate listener
//
// The proxy's own metrics never mix with the filtered backend metrics it
// serves on its proxy routes. They live in their own registry and are
// exposed on the telemetry listen address, which defaults to loopback.
//
// # Usage
//
//	logger, err := logging.Setup(&cfg.Telemetry.Logging, os.Stdout)
//	if err != nil {
//		return err
//	}
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics)
//	collector.RecordRequest("/metrics", 200, latency)
package telemetry
