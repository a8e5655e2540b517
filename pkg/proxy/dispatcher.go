package proxy

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fspreiss/metrics-proxy/pkg/config"
	"github.com/fspreiss/metrics-proxy/pkg/labelfilter"
	"github.com/fspreiss/metrics-proxy/pkg/scrape"
	"github.com/fspreiss/metrics-proxy/pkg/telemetry/metrics"
)

// Dispatcher handles one route: it fetches the backend snapshot, filters it
// with the route's rules and state, serializes the result, and responds.
//
// Backend faults never surface as their own status code: every scrape
// failure, whatever the backend answered, becomes 502 Bad Gateway with a
// body describing the cause. Deadline handling is layered above (see
// middleware.Timeout); the dispatcher itself never emits 504.
type Dispatcher struct {
	route     *config.Route
	client    *scrape.Client
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewDispatcher creates the dispatcher for a route.
func NewDispatcher(route *config.Route, client *scrape.Client, collector *metrics.Collector, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		route:     route,
		client:    client,
		collector: collector,
		logger:    logger,
	}
}

// ServeHTTP runs the fetch, filter, serialize, respond pipeline for one
// request. No step is retried; the first failure terminates the request.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result, err := d.client.Fetch(r.Context(), d.route.Backend, r.Header)
	if err != nil {
		d.respondScrapeError(w, err)
		return
	}

	filtered := labelfilter.Apply(result.Families, d.route.Filters, d.route.FilterState, time.Now())
	d.collector.UpdateFilterStateSize(d.route.Path, d.route.FilterState.Len())

	body, err := serialize(filtered)
	if err != nil {
		d.logger.Error("cannot serialize filtered snapshot",
			"path", d.route.Path,
			"error", err,
		)
		http.Error(w, "cannot serialize metrics", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// respondScrapeError maps a scrape failure to the 502 response the client
// sees and records it. The backend's own status code is reported in the
// body and log only, never forwarded as the response code.
func (d *Dispatcher) respondScrapeError(w http.ResponseWriter, err error) {
	var backendErr *scrape.BackendError
	var parseErr *scrape.ParseError
	var fetchErr *scrape.FetchError

	switch {
	case errors.As(err, &backendErr):
		d.collector.RecordScrapeError(d.route.Path, "backend")
		d.logger.Warn("backend answered with an error status",
			"path", d.route.Path,
			"backend", d.route.Backend.URL,
			"status", backendErr.Status,
			"body", string(backendErr.Body),
		)
		http.Error(w, fmt.Sprintf("backend returned status %d", backendErr.Status), http.StatusBadGateway)

	case errors.As(err, &parseErr):
		d.collector.RecordScrapeError(d.route.Path, "parse")
		d.logger.Warn("backend returned a malformed metrics document",
			"path", d.route.Path,
			"backend", d.route.Backend.URL,
			"error", parseErr.Err,
		)
		http.Error(w, parseErr.Error(), http.StatusBadGateway)

	default:
		// Transport-level failures, including fetch timeouts.
		d.collector.RecordScrapeError(d.route.Path, "fetch")
		if errors.As(err, &fetchErr) {
			d.logger.Warn("cannot reach backend",
				"path", d.route.Path,
				"backend", d.route.Backend.URL,
				"error", fetchErr.Err,
			)
		} else {
			d.logger.Warn("scrape failed",
				"path", d.route.Path,
				"backend", d.route.Backend.URL,
				"error", err,
			)
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}
