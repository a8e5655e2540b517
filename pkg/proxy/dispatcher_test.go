package proxy

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fspreiss/metrics-proxy/internal/backendtest"
	"github.com/fspreiss/metrics-proxy/pkg/config"
	"github.com/fspreiss/metrics-proxy/pkg/labelfilter"
	"github.com/fspreiss/metrics-proxy/pkg/scrape"
	"github.com/fspreiss/metrics-proxy/pkg/telemetry/metrics"
)

const nodeExposition = `# TYPE node_cpu_seconds_total counter
node_cpu_seconds_total{cpu="0",mode="idle"} 100
node_cpu_seconds_total{cpu="0",mode="user"} 10
# TYPE up gauge
up 1
`

func testRoute(t *testing.T, backendURL string, filters []labelfilter.Rule) *config.Route {
	t.Helper()
	return &config.Route{
		Path:        "/metrics",
		Backend:     config.Backend{URL: backendURL, Timeout: 5 * time.Second},
		Filters:     filters,
		FilterState: labelfilter.NewState(),
	}
}

func testCollector() *metrics.Collector {
	return metrics.NewCollector(&config.MetricsConfig{Namespace: "test"})
}

func TestDispatcher_ServesFilteredSnapshot(t *testing.T) {
	backend := backendtest.New(nodeExposition)
	defer backend.Close()

	rule, err := labelfilter.NewRule([]string{"__name__", "mode"}, ";",
		"node_cpu_seconds_total;idle", []labelfilter.Action{{Kind: labelfilter.Drop}})
	if err != nil {
		t.Fatalf("cannot compile rule: %v", err)
	}

	dispatcher := NewDispatcher(testRoute(t, backend.URL(), []labelfilter.Rule{rule}),
		scrape.NewClient(), testCollector(), nil)

	rec := httptest.NewRecorder()
	dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("unexpected content type: %s", ct)
	}

	body := rec.Body.String()
	if strings.Contains(body, `mode="idle"`) {
		t.Error("expected idle samples to be filtered out")
	}
	if !strings.Contains(body, `mode="user"`) {
		t.Error("expected user samples to survive")
	}
	if !strings.Contains(body, "up 1") {
		t.Error("expected unmatched family to pass through")
	}
}

func TestDispatcher_BackendStatusBecomes502(t *testing.T) {
	backend := backendtest.New("overloaded")
	backend.SetStatusCode(http.StatusServiceUnavailable)
	defer backend.Close()

	dispatcher := NewDispatcher(testRoute(t, backend.URL(), nil),
		scrape.NewClient(), testCollector(), nil)

	rec := httptest.NewRecorder()
	dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "backend returned status 503") {
		t.Errorf("expected backend status in body, got: %s", rec.Body.String())
	}
}

func TestDispatcher_UnreachableBackendBecomes502(t *testing.T) {
	dispatcher := NewDispatcher(testRoute(t, "http://127.0.0.1:1/metrics", nil),
		scrape.NewClient(), testCollector(), nil)

	rec := httptest.NewRecorder()
	dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestDispatcher_MalformedBackendBecomes502(t *testing.T) {
	backend := backendtest.New("!! not an exposition !!\n")
	defer backend.Close()

	dispatcher := NewDispatcher(testRoute(t, backend.URL(), nil),
		scrape.NewClient(), testCollector(), nil)

	rec := httptest.NewRecorder()
	dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cannot parse metrics") {
		t.Errorf("expected parse failure in body, got: %s", rec.Body.String())
	}
}
