// Package probe validates candidate SOCKS5 endpoints.
//
// This package provides the three network-facing pieces of a validation run:
// the reference IP resolver that discovers the caller's own public address
// once before fan-out, the SOCKS5 prober that tunnels a real HTTP request
// through each candidate, and the optional handshake pre-filter that sheds
// obvious non-proxies with a raw RFC 1928 greeting.
//
// Design decision: A candidate counts as working only when an HTTP request
// tunneled through it completes with status 200. Handshake success alone
// proves nothing; public lists are full of endpoints that negotiate SOCKS5
// and then drop the tunneled traffic. Every failure mode is recorded as data
// on the result (a FailureReason plus diagnostic text) rather than returned
// as an error, so the scheduler can treat dead endpoints as ordinary output.
//
// The package is designed to be used with dependency injection - the
// scheduler receives a Prober and the optional HandshakeFilter rather than
// constructing them from global state.
package probe
