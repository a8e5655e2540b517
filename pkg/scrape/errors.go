package scrape

import (
	"fmt"
	"net/http"
)

// FetchError reports a transport-level failure: connection refused, DNS
// failure, or the fetch timeout elapsing before a response arrived.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("cannot fetch metrics from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// BackendError reports a backend that answered with a non-200 status. It is
// not a transport failure: the response status, headers and raw body are
// carried for diagnostic propagation upstream.
type BackendError struct {
	Status int
	Header http.Header
	Body   []byte
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// ParseError reports a 200 response whose body is not a well-formed metrics
// exposition document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse metrics from backend: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
