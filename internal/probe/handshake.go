package probe

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// SOCKS5 protocol constants (RFC 1928).
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthUserPass = 0x02
	socks5AuthNoAccept = 0xFF
)

// DefaultHandshakeTimeout bounds the pre-filter exchange. We use a short
// timeout here because this is just a greeting check, not a full probe; a
// proxy that needs longer to answer two bytes will not survive the tunneled
// probe either.
const DefaultHandshakeTimeout = 5 * time.Second

// HandshakeFilter eliminates candidates that do not speak SOCKS5 at all, using
// a raw greeting exchange that is much cheaper than a full tunneled probe.
//
// The filter is an optional stage: survivors still face the full probe, and
// passing the handshake alone NEVER marks an endpoint as working. Plenty of
// endpoints answer the greeting and then drop the tunneled traffic; only the
// echo request decides. The filter exists to shed obvious non-proxies (HTTP
// servers, SSH daemons, dead ports) before they consume a full probe slot.
type HandshakeFilter struct {
	// timeout bounds the TCP connect plus the two-byte greeting exchange.
	timeout time.Duration
}

// NewHandshakeFilter creates a handshake pre-filter. A zero or negative
// timeout falls back to DefaultHandshakeTimeout.
func NewHandshakeFilter(timeout time.Duration) *HandshakeFilter {
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	return &HandshakeFilter{timeout: timeout}
}

// Check performs the SOCKS5 greeting against the endpoint and returns a
// ProxyStatus describing how far it got.
//
// The exchange follows RFC 1928:
//  1. Connect to the endpoint over TCP
//  2. Send the greeting offering "no auth" (plus "username/password" when the
//     candidate carries credentials)
//  3. Read the two-byte method selection and require SOCKS version 5 and a
//     method we actually offered
//
// We stop after the method selection. Whether the endpoint can carry traffic
// is decided by the tunneled probe, so verifying the CONNECT round trip here
// would just duplicate work the survivors are about to do anyway.
func (f *HandshakeFilter) Check(ctx context.Context, ep model.Endpoint) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", ep.Addr())
	if err != nil {
		if ctx.Err() != nil {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close() //nolint:errcheck // read-only teardown

	// Cover the greeting exchange with the same deadline as the dial.
	if err := conn.SetDeadline(time.Now().Add(f.timeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	// Greeting: version (1 byte) + method count (1 byte) + methods (N bytes).
	// We always offer "no auth"; credentials add "username/password".
	methods := []byte{socks5AuthNone}
	if ep.HasAuth() {
		methods = append(methods, socks5AuthUserPass)
	}
	greeting := append([]byte{socks5Version, byte(len(methods))}, methods...)
	if _, err := conn.Write(greeting); err != nil {
		return ProxyStatusCannotConnect
	}

	// Selection: version (1 byte) + chosen method (1 byte).
	selection := make([]byte, 2)
	if _, err := io.ReadFull(conn, selection); err != nil {
		if isTimeout(err) {
			return ProxyStatusTimeout
		}
		// Anything else means it didn't speak SOCKS5 properly
		return ProxyStatusNotSOCKS5
	}

	if selection[0] != socks5Version {
		return ProxyStatusNotSOCKS5
	}

	switch selection[1] {
	case socks5AuthNone:
		return ProxyStatusOK
	case socks5AuthUserPass:
		// Acceptable only when we actually offered it.
		if ep.HasAuth() {
			return ProxyStatusOK
		}
		return ProxyStatusNotSOCKS5
	case socks5AuthNoAccept:
		// Server rejected every method we offered.
		return ProxyStatusNotSOCKS5
	default:
		// Server picked a method we never offered.
		return ProxyStatusNotSOCKS5
	}
}

// Eliminate builds the terminal result for a candidate the filter rejected.
// The result mirrors what a full probe would have recorded for the same
// failure, so downstream consumers cannot tell (and do not care) which stage
// eliminated the endpoint.
func (f *HandshakeFilter) Eliminate(ep model.Endpoint, status ProxyStatus) *model.ProbeResult {
	result := model.NewProbeResult(ep)
	if err := status.Error(); err != nil {
		result.SetFailure(status.FailureReason(), err.Error())
	}
	return result
}
