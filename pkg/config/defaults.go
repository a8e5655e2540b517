package config

import "time"

// Default values applied to fields left unset in the configuration file.
const (
	// DefaultConnectTimeout is the default backend fetch timeout.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultHeaderReadTimeout is the default client header read timeout.
	DefaultHeaderReadTimeout = 5 * time.Second

	// DefaultRequestResponseSlack is added to the connect timeout to form
	// the default request-response timeout, leaving room to filter and
	// serialize after a slow fetch.
	DefaultRequestResponseSlack = 5 * time.Second

	// DefaultSeparator joins source label values in filter match keys.
	DefaultSeparator = ";"

	// DefaultLogLevel is the default minimum log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log output format.
	DefaultLogFormat = "json"

	// DefaultMetricsListenAddress is the default self-metrics listen address.
	DefaultMetricsListenAddress = "127.0.0.1:9091"

	// DefaultMetricsPath is the default self-metrics HTTP path.
	DefaultMetricsPath = "/metrics"

	// DefaultMetricsNamespace is the default self-metrics name prefix.
	DefaultMetricsNamespace = "metricsproxy"

	// DefaultStateSweepSchedule is the default filter-state sweep schedule.
	DefaultStateSweepSchedule = "@every 10m"

	// DefaultStateRetention is the default retention for unused per-series
	// filter state.
	DefaultStateRetention = time.Hour
)

// DefaultSourceLabels returns the default source labels for a filter rule:
// the metric name.
func DefaultSourceLabels() []string {
	return []string{"__name__"}
}

// ApplyDefaults fills in default values for all unset configuration fields.
// It modifies the configuration in place and is idempotent.
func ApplyDefaults(cfg *Config) {
	for i := range cfg.Proxies {
		p := &cfg.Proxies[i]

		if p.ConnectTo.Timeout == 0 {
			p.ConnectTo.Timeout = DefaultConnectTimeout
		}
		if p.ListenOn.HeaderReadTimeout == 0 {
			p.ListenOn.HeaderReadTimeout = DefaultHeaderReadTimeout
		}
		if p.ListenOn.RequestResponseTimeout == 0 {
			p.ListenOn.RequestResponseTimeout = p.ConnectTo.Timeout + DefaultRequestResponseSlack
		}

		for j := range p.LabelFilters {
			f := &p.LabelFilters[j]
			if len(f.SourceLabels) == 0 {
				f.SourceLabels = DefaultSourceLabels()
			}
			if f.Separator == "" {
				f.Separator = DefaultSeparator
			}
		}
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.StateSweepSchedule == "" {
		cfg.Telemetry.Metrics.StateSweepSchedule = DefaultStateSweepSchedule
	}
	if cfg.Telemetry.Metrics.StateRetention == 0 {
		cfg.Telemetry.Metrics.StateRetention = DefaultStateRetention
	}
}
