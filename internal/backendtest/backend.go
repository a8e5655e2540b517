// Package backendtest provides a fake metrics backend for tests.
//
// A Backend is an httptest.Server that answers with a configurable
// Prometheus text exposition. Tests swap the exposition between scrapes,
// inject error statuses or delays, and inspect the request count and the
// headers the proxy forwarded.
package backendtest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Backend simulates a Prometheus exporter for testing the proxy.
type Backend struct {
	server *httptest.Server

	mu           sync.Mutex
	exposition   string
	statusCode   int
	delay        time.Duration
	requestCount int
	lastHeader   http.Header
}

// New creates a backend serving the given exposition with status 200.
func New(exposition string) *Backend {
	b := &Backend{
		exposition: exposition,
		statusCode: http.StatusOK,
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.handler))
	return b
}

// URL returns the backend's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Close shuts the backend down.
func (b *Backend) Close() {
	b.server.Close()
}

// SetExposition replaces the metrics document served to the next scrape.
func (b *Backend) SetExposition(exposition string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exposition = exposition
}

// SetStatusCode makes the backend answer with the given status. The
// exposition is still written as the body.
func (b *Backend) SetStatusCode(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusCode = code
}

// SetDelay makes the backend sleep before answering.
func (b *Backend) SetDelay(delay time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = delay
}

// RequestCount returns the number of scrapes received.
func (b *Backend) RequestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requestCount
}

// LastHeader returns a copy of the headers of the most recent scrape.
func (b *Backend) LastHeader() http.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastHeader == nil {
		return nil
	}
	return b.lastHeader.Clone()
}

func (b *Backend) handler(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requestCount++
	b.lastHeader = r.Header.Clone()
	exposition := b.exposition
	statusCode := b.statusCode
	delay := b.delay
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(exposition))
}
