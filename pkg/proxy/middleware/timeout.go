package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Timeout enforces a per-request deadline covering the whole pipeline,
// backend fetch included. When the deadline expires the client receives
// 504 Gateway Timeout, never whatever status the abandoned handler would
// have produced.
//
// The inner handler writes into a buffered recorder on its own goroutine,
// so the client connection is only ever written from one side of the race:
// either the completed response is replayed, or the 504 is written.
//
// Example usage:
//
//	handler = Timeout(35 * time.Second)(handler)
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			recorder := newBufferedRecorder()
			done := make(chan struct{})

			go func() {
				defer close(done)
				defer func() {
					if err := recover(); err != nil {
						slog.Error("panic in timed handler",
							"error", err,
							"method", r.Method,
							"path", r.URL.Path,
						)
						recorder.header = make(http.Header)
						recorder.body.Reset()
						recorder.statusCode = http.StatusInternalServerError
						recorder.header.Set("Content-Type", "text/plain; charset=utf-8")
						recorder.body.WriteString("internal server error\n")
					}
				}()
				next.ServeHTTP(recorder, r.WithContext(ctx))
			}()

			select {
			case <-done:
				recorder.replay(w)

			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					slog.WarnContext(r.Context(), "request deadline exceeded",
						"request_id", GetRequestID(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", timeout.String(),
					)
					http.Error(w, "request timed out", http.StatusGatewayTimeout)
				}
				// Client cancellations get no response; the connection
				// is already gone.
			}
		})
	}
}
