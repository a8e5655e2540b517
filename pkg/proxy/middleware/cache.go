package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/fspreiss/metrics-proxy/pkg/telemetry/metrics"
)

// cacheEntry is one stored response with the time it was produced.
type cacheEntry struct {
	statusCode int
	header     http.Header
	body       []byte
	created    time.Time
}

// Cache stores the most recent successful response for a route and serves
// it to every request arriving within ttl of its creation. Only 200
// responses are stored; errors always fall through to the backend on the
// next request. Concurrent misses each fetch, and the last writer wins.
//
// A cached response is replayed byte for byte, headers included, without
// touching the backend.
//
// Example usage:
//
//	handler = Cache(5*time.Second, "/metrics", collector)(handler)
func Cache(ttl time.Duration, route string, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		var mu sync.Mutex
		var entry *cacheEntry

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()

			mu.Lock()
			cached := entry
			mu.Unlock()

			if cached != nil && now.Sub(cached.created) < ttl {
				collector.RecordCacheHit(route)
				for key, values := range cached.header {
					for _, value := range values {
						w.Header().Add(key, value)
					}
				}
				w.WriteHeader(cached.statusCode)
				_, _ = w.Write(cached.body)
				return
			}

			collector.RecordCacheMiss(route)

			recorder := newBufferedRecorder()
			next.ServeHTTP(recorder, r)

			if recorder.statusCode == http.StatusOK {
				fresh := &cacheEntry{
					statusCode: recorder.statusCode,
					header:     recorder.header.Clone(),
					body:       append([]byte(nil), recorder.body.Bytes()...),
					created:    now,
				}
				mu.Lock()
				entry = fresh
				mu.Unlock()
			}

			recorder.replay(w)
		})
	}
}
