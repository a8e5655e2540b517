// Package middleware provides HTTP middleware wrapping the per-route
// dispatcher.
//
// The chain is assembled per route, innermost first:
//
//	Dispatcher -> Cache -> Timeout -> Logging -> RequestID -> Recovery
//
// Cache replays the most recent successful response while it is fresh.
// Timeout enforces the route's request deadline and substitutes a 504 when
// it expires. Logging records the access log line and request metrics with
// the status the client actually received. RequestID tags every request
// for correlation, and Recovery converts handler panics into plain 500
// responses.
package middleware
