package middleware

import (
	"bytes"
	"net/http"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// newResponseWriter creates a new response writer wrapper.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called if not already done.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// bufferedRecorder is an http.ResponseWriter that holds the full response
// in memory instead of writing it to the client. The cache and timeout
// layers use it so a response can be replayed, stored, or discarded after
// the inner handler has finished.
type bufferedRecorder struct {
	statusCode int
	header     http.Header
	body       bytes.Buffer
}

func newBufferedRecorder() *bufferedRecorder {
	return &bufferedRecorder{
		statusCode: http.StatusOK,
		header:     make(http.Header),
	}
}

func (br *bufferedRecorder) Header() http.Header {
	return br.header
}

func (br *bufferedRecorder) WriteHeader(code int) {
	br.statusCode = code
}

func (br *bufferedRecorder) Write(b []byte) (int, error) {
	return br.body.Write(b)
}

// replay writes the recorded response to w.
func (br *bufferedRecorder) replay(w http.ResponseWriter) {
	for key, values := range br.header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(br.statusCode)
	_, _ = w.Write(br.body.Bytes())
}
