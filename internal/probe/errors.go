package probe

import (
	"errors"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// Probe errors.
// These errors are returned when a candidate endpoint cannot be validated.
//
// Design decision: We define specific error types rather than wrapping all errors
// generically. This allows callers to handle different failure modes appropriately
// (e.g., record a timeout as data on the result, but fail fast on a malformed
// endpoint that should never have reached the prober).
var (
	// ErrProxyNotSOCKS5 is returned when the endpoint accepts a TCP connection
	// but does not answer the SOCKS5 greeting correctly. This typically happens
	// when probing an HTTP proxy, an SSH daemon, or some other service that
	// happens to listen on a port harvested from a public list.
	ErrProxyNotSOCKS5 = errors.New("endpoint is not a SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when we cannot establish a TCP connection
	// to the endpoint. Public proxy lists are full of dead hosts, so this is the
	// most common outcome of a probe.
	ErrProxyCannotConnect = errors.New("cannot connect to proxy endpoint")

	// ErrProxyTimeout is returned when the connection to the endpoint times out.
	// Slow or overloaded proxies hit this before completing the handshake.
	ErrProxyTimeout = errors.New("timeout connecting to proxy endpoint")

	// ErrNoEchoService is returned when every configured echo service failed to
	// report the caller's public address. The run can still proceed, but
	// anonymity classification is disabled for all results.
	ErrNoEchoService = errors.New("no echo service returned the public address")
)

// ProxyStatus represents the result of the raw SOCKS5 handshake check.
// This enum allows for easy status reporting and programmatic handling
// of the different ways a candidate can fail the pre-filter.
type ProxyStatus int

const (
	// ProxyStatusOK indicates the endpoint answered the SOCKS5 greeting.
	// It says nothing about whether the endpoint can actually carry traffic;
	// only the full tunneled probe decides that.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusNotSOCKS5 indicates the endpoint accepted the connection but
	// did not speak SOCKS5, or selected an authentication method we cannot use.
	ProxyStatusNotSOCKS5

	// ProxyStatusCannotConnect indicates we could not establish a TCP
	// connection. The host is down, filtered, or the port is closed.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout indicates the connection attempt or the handshake
	// exchange timed out.
	ProxyStatusTimeout
)

// String returns a human-readable description of the proxy status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusNotSOCKS5:
		return "not a SOCKS5 proxy"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error returns the appropriate error for this status, or nil if OK.
func (s ProxyStatus) Error() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusNotSOCKS5:
		return ErrProxyNotSOCKS5
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	default:
		return errors.New("unknown proxy status")
	}
}

// FailureReason maps the status onto the failure taxonomy recorded on probe
// results. Candidates eliminated by the handshake pre-filter become regular
// failed results, so downstream reporting treats them like any other failure.
func (s ProxyStatus) FailureReason() model.FailureReason {
	switch s {
	case ProxyStatusOK:
		return model.FailureNone
	case ProxyStatusNotSOCKS5:
		return model.FailureProtocolMismatch
	case ProxyStatusCannotConnect:
		return model.FailureConnectionRefused
	case ProxyStatusTimeout:
		return model.FailureTimeout
	default:
		return model.FailureUnknown
	}
}
