package config

import "time"

// Config is the root configuration structure for the metrics proxy.
// It contains the list of proxy route declarations plus telemetry settings.
type Config struct {
	// Proxies is the ordered list of proxy route declarations. Each entry
	// binds one listen URL (address + handler path) to one backend and an
	// optional chain of label filters. Multiple entries may share a listen
	// address; they are folded into a single physical listener at build time.
	Proxies []ProxyEntry `yaml:"proxies"`

	// Telemetry contains observability configuration for the proxy itself.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyEntry declares a single proxied route: where to listen, which backend
// to fetch metrics from, how to filter them, and how long to cache responses.
type ProxyEntry struct {
	// ListenOn describes the listening endpoint and handler path.
	ListenOn ListenOnConfig `yaml:"listen_on"`

	// ConnectTo describes the backend to scrape on each request.
	ConnectTo ConnectToConfig `yaml:"connect_to"`

	// LabelFilters is the ordered list of filter rules applied to every
	// scraped snapshot before it is re-served. An empty list passes the
	// snapshot through unchanged.
	LabelFilters []LabelFilterConfig `yaml:"label_filters"`

	// CacheFor enables response caching for this route. While a cached
	// response is younger than this duration, requests are answered from
	// the cache without contacting the backend. Zero disables caching.
	// Default: 0 (disabled)
	CacheFor time.Duration `yaml:"cache_for"`
}

// ListenOnConfig specifies which host, port and HTTP handler path to serve
// a route on. The URL scheme selects the transport: "http" for plain HTTP,
// "https" for TLS (which requires certificate_file and key_file).
type ListenOnConfig struct {
	// URL is the listen URL, e.g. "http://0.0.0.0:9090/metrics" or
	// "https://10.0.0.1:9443/node". The port is mandatory and must be
	// an unprivileged port (>= 1024). The path is the handler the route
	// responds on. Credentials, query strings and fragments are rejected.
	URL string `yaml:"url"`

	// CertificateFile is the path to a PEM-encoded certificate chain.
	// Required when the URL scheme is https, forbidden when it is http.
	CertificateFile string `yaml:"certificate_file"`

	// KeyFile is the path to a PEM-encoded private key (PKCS#8, RSA or EC;
	// the file must contain exactly one key). Required when the URL scheme
	// is https, forbidden when it is http.
	KeyFile string `yaml:"key_file"`

	// WatchCertificates enables hot reloading of the certificate and key
	// files. Changed files are picked up without a restart; the serve path
	// never re-reads files.
	// Default: false
	WatchCertificates bool `yaml:"watch_certificates"`

	// HeaderReadTimeout is the maximum duration to wait for client request
	// headers.
	// Default: 5s
	HeaderReadTimeout time.Duration `yaml:"header_read_timeout"`

	// RequestResponseTimeout bounds the whole request: fetch, filter and
	// serialize. When it elapses the client receives 504 Gateway Timeout.
	// Default: connect_to timeout + 5s
	RequestResponseTimeout time.Duration `yaml:"request_response_timeout"`
}

// ConnectToConfig specifies the backend a route fetches metrics from.
type ConnectToConfig struct {
	// URL is the backend metrics endpoint, e.g. "http://127.0.0.1:9100/metrics".
	// Only http and https schemes are supported; credentials and fragments
	// are rejected.
	URL string `yaml:"url"`

	// Timeout bounds the backend fetch.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// LabelFilterConfig declares one filter rule. Each scraped series is matched
// by concatenating the values of source_labels with separator and testing the
// result against regex, which is anchored at both ends before compilation.
type LabelFilterConfig struct {
	// SourceLabels are the label names whose values form the match key.
	// The pseudo label __name__ resolves to the metric name.
	// Default: [__name__]
	SourceLabels []string `yaml:"source_labels"`

	// Separator joins the source label values in the match key.
	// Default: ";"
	Separator string `yaml:"separator"`

	// Regex is the pattern the match key is tested against. The pattern is
	// wrapped as ^(?:regex)$ before compilation, so a partial substring
	// match never suffices.
	Regex string `yaml:"regex"`

	// Actions are executed in order for every series whose match key
	// matches. keep and drop terminate processing for the series;
	// reduce_time_resolution rate-limits how often the emitted value of
	// the series may change.
	Actions []ActionConfig `yaml:"actions"`
}

// TelemetryConfig contains observability configuration for the proxy itself.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains the proxy's own Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains configuration for the proxy's own metrics endpoint.
// When enabled, the proxy serves Prometheus metrics about its request
// handling on a dedicated listener.
type MetricsConfig struct {
	// Enabled controls whether the self-metrics listener is started.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address for the self-metrics listener.
	// Format: "host:port".
	// Default: "127.0.0.1:9091"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path the metrics are served on.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "metricsproxy"
	Namespace string `yaml:"namespace"`

	// StateSweepSchedule is a cron expression scheduling the sweep of stale
	// per-series filter state (series that stopped appearing in scrapes).
	// Default: "@every 10m"
	StateSweepSchedule string `yaml:"state_sweep_schedule"`

	// StateRetention is how long unused per-series filter state is kept
	// before a sweep removes it.
	// Default: 1h
	StateRetention time.Duration `yaml:"state_retention"`
}
