package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fspreiss/metrics-proxy/pkg/config"
)

// Collector owns every Prometheus metric the proxy exposes about itself:
// request handling, backend scrapes, and the per-route response cache.
// A nil *Collector is valid and records nothing, so wiring telemetry stays
// optional throughout the request path.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	scrapeErrorsTotal *prometheus.CounterVec

	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec

	filterStateSeries *prometheus.GaugeVec
	filterStateSwept  prometheus.Counter
	filterStateSweeps prometheus.Counter
}

// NewCollector creates a collector registered against a fresh registry,
// together with the Go runtime and process collectors.
func NewCollector(cfg *config.MetricsConfig) *Collector {
	ns := cfg.Namespace
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "requests_total",
				Help:      "Proxied requests by route path and response code.",
			},
			[]string{"route", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "request_duration_seconds",
				Help:      "End-to-end request duration by route path.",
				Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"route"},
		),

		scrapeErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "scrape_errors_total",
				Help:      "Backend scrape failures by route path and error kind (fetch, backend, parse).",
			},
			[]string{"route", "kind"},
		),

		cacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "cache_hits_total",
				Help:      "Requests answered from the per-route response cache.",
			},
			[]string{"route"},
		),

		cacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "cache_misses_total",
				Help:      "Requests that dispatched to the backend because the cache was empty or stale.",
			},
			[]string{"route"},
		),

		filterStateSeries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "filter_state_series",
				Help:      "Series currently tracked by a route's reduce_time_resolution state.",
			},
			[]string{"route"},
		),

		filterStateSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "filter_state_swept_total",
				Help:      "Stale filter-state series removed by sweeps.",
			},
		),

		filterStateSweeps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "filter_state_sweeps_total",
				Help:      "Filter-state sweep runs.",
			},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.scrapeErrorsTotal,
		c.cacheHitsTotal,
		c.cacheMissesTotal,
		c.filterStateSeries,
		c.filterStateSwept,
		c.filterStateSweeps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the registry all proxy metrics are registered against.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRequest records one completed request.
func (c *Collector) RecordRequest(route string, code int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	c.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordScrapeError records one backend scrape failure.
// kind is one of "fetch", "backend", "parse".
func (c *Collector) RecordScrapeError(route, kind string) {
	if c == nil {
		return
	}
	c.scrapeErrorsTotal.WithLabelValues(route, kind).Inc()
}

// RecordCacheHit records a request answered from the response cache.
func (c *Collector) RecordCacheHit(route string) {
	if c == nil {
		return
	}
	c.cacheHitsTotal.WithLabelValues(route).Inc()
}

// RecordCacheMiss records a request that had to dispatch to the backend.
func (c *Collector) RecordCacheMiss(route string) {
	if c == nil {
		return
	}
	c.cacheMissesTotal.WithLabelValues(route).Inc()
}

// UpdateFilterStateSize records the number of tracked series for a route.
func (c *Collector) UpdateFilterStateSize(route string, size int) {
	if c == nil {
		return
	}
	c.filterStateSeries.WithLabelValues(route).Set(float64(size))
}

// RecordSweep records one filter-state sweep and how many series it removed.
func (c *Collector) RecordSweep(removed int) {
	if c == nil {
		return
	}
	c.filterStateSweeps.Inc()
	c.filterStateSwept.Add(float64(removed))
}
