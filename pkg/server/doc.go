// Package server runs the HTTP front of the proxy.
//
// A Server owns one http.Server per listen address in the resolved
// topology. Each listener carries its own transport (plain HTTP or TLS),
// header read timeout, and route table; each route gets its own middleware
// chain around a proxy.Dispatcher. Listeners sharing an address in the
// configuration have already been folded into one by the config package,
// so the server never has to arbitrate between conflicting definitions.
//
// Startup is all or nothing: if any listener cannot bind or its TLS
// material cannot be set up, Start returns an error naming the address and
// no traffic is served. Shutdown drains all listeners concurrently with a
// bounded grace period.
package server
