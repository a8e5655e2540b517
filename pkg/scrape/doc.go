// Package scrape fetches metric snapshots from configured backends.
//
// A scrape is an HTTP GET with the client's headers forwarded (minus
// hop-by-hop headers), bounded by the backend's fetch timeout, whose 200
// response body is parsed as a text exposition document. The three failure
// modes are kept distinct so the dispatcher can report them precisely:
// transport failures (*FetchError), non-200 backend answers
// (*BackendError, carrying status, headers and body), and malformed bodies
// (*ParseError).
package scrape
