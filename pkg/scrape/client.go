package scrape

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/fspreiss/metrics-proxy/pkg/config"
)

// hopByHopHeaders are never forwarded to the backend. Host and
// Content-Length are managed by the transport; Accept-Encoding is left to
// the transport so response decompression stays transparent.
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Host":                {},
	"Content-Length":      {},
	"Accept-Encoding":     {},
}

// Result is a successful scrape: the parsed snapshot plus the backend's
// response headers, preserved for potential pass-through.
type Result struct {
	// Header is the backend's response header set.
	Header http.Header

	// Families is the parsed snapshot, keyed by metric family name.
	Families map[string]*dto.MetricFamily
}

// Client fetches metric snapshots from backends. A single Client is shared
// by all routes; per-route timeouts are applied per request.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a scrape client with a pooled transport.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Fetch issues a GET against the backend, forwarding the given headers and
// bounded by the backend's fetch timeout, and parses the response body as a
// text exposition document.
//
// Failures map onto three distinct error types: *FetchError for transport
// and timeout failures, *BackendError for non-200 responses, and
// *ParseError for malformed 200 bodies.
func (c *Client) Fetch(ctx context.Context, backend config.Backend, header http.Header) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, backend.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, backend.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: backend.URL, Err: err}
	}
	copyForwardedHeaders(req.Header, header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: backend.URL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: backend.URL, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &BackendError{
			Status: resp.StatusCode,
			Header: resp.Header.Clone(),
			Body:   body,
		}
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	return &Result{
		Header:   resp.Header.Clone(),
		Families: families,
	}, nil
}

// copyForwardedHeaders copies client headers onto the backend request,
// skipping hop-by-hop headers.
func copyForwardedHeaders(dst, src http.Header) {
	for name, values := range src {
		if _, skip := hopByHopHeaders[http.CanonicalHeaderKey(name)]; skip {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}
