// Package proxy contains the per-route request handler that turns an
// incoming scrape into a backend fetch, a filtering pass, and a text
// exposition response.
//
// One Dispatcher serves one route. Requests flow through four stages in
// order: fetch the backend snapshot, apply the route's label filter rules,
// serialize the surviving families in the Prometheus text format, and
// respond. Any backend fault, including a refused connection, an error
// status, or an unparseable payload, turns into 502 Bad Gateway. Deadline
// enforcement and response caching live in the middleware subpackage and
// wrap the dispatcher from the outside.
package proxy
