package probe

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/proxy"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

const (
	// DefaultEchoURL is the echo service fetched through each candidate tunnel.
	// The probe succeeds only when this request completes with status 200.
	DefaultEchoURL = "http://httpbin.org/ip"

	// DefaultProbeTimeout bounds a single probe from dial to decoded response.
	DefaultProbeTimeout = 10 * time.Second

	// maxEchoBodyBytes caps how much of an echo response we read. Echo services
	// return a few dozen bytes; anything larger is a captive portal or an error
	// page and we only need enough of it for a diagnostic.
	maxEchoBodyBytes = 4 << 10
)

// Prober validates a single candidate endpoint and reports the outcome.
// Implementations must never panic and must always return a terminal result,
// even when the context is already cancelled.
type Prober interface {
	// Probe tests the endpoint and returns its result. The returned result is
	// never nil: failures are recorded as data on the result, not as errors.
	Probe(ctx context.Context, ep model.Endpoint) *model.ProbeResult

	// Target returns the echo URL the prober fetches through each tunnel.
	Target() string
}

// SOCKS5Prober validates candidates by tunneling a real HTTP request through
// them. Completing the SOCKS5 handshake is not enough to pass: plenty of
// endpoints on public lists accept the handshake and then drop or mangle the
// tunneled traffic, so the only bar that matters is whether the echo request
// comes back with status 200.
//
// Design decision: We build a fresh dialer and HTTP client per probe instead
// of caching them. Each probe targets a different proxy address, often with
// different credentials, and the one-shot client is cheap next to the network
// round trips it fronts.
type SOCKS5Prober struct {
	// echoURL is the service fetched through each tunnel.
	echoURL string

	// timeout is the per-probe deadline covering dial, handshake, request,
	// and response body.
	timeout time.Duration

	// referenceIP is the caller's own public address, resolved once before
	// fan-out. Empty when resolution failed; anonymity then stays unknown.
	referenceIP string
}

// NewSOCKS5Prober creates a prober that fetches echoURL through each candidate
// within timeout. referenceIP may be empty when the caller's address could not
// be resolved; anonymity classification is disabled in that case.
//
// A zero or negative timeout falls back to DefaultProbeTimeout, and an empty
// echoURL falls back to DefaultEchoURL, so the zero-ish configuration still
// produces a working prober.
func NewSOCKS5Prober(echoURL string, timeout time.Duration, referenceIP string) *SOCKS5Prober {
	if echoURL == "" {
		echoURL = DefaultEchoURL
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &SOCKS5Prober{
		echoURL:     echoURL,
		timeout:     timeout,
		referenceIP: referenceIP,
	}
}

// Target returns the echo URL fetched through each tunnel.
func (p *SOCKS5Prober) Target() string {
	return p.echoURL
}

// ReferenceIP returns the caller's public address used for anonymity
// classification, or an empty string when it could not be resolved.
func (p *SOCKS5Prober) ReferenceIP() string {
	return p.referenceIP
}

// Probe tunnels one GET request to the echo URL through the endpoint.
//
// The whole exchange runs under a single per-probe deadline. On success the
// result carries the wall-clock latency, the exit IP reported by the echo
// service, and the anonymity classification. On failure the result records a
// FailureReason and a diagnostic message; the error never escapes, so one bad
// endpoint cannot disturb its siblings.
func (p *SOCKS5Prober) Probe(ctx context.Context, ep model.Endpoint) *model.ProbeResult {
	result := model.NewProbeResult(ep)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()

	dialer, err := newEndpointDialer(ep)
	if err != nil {
		result.SetFailure(model.FailureUnknown, err.Error())
		return result
	}

	client := p.newTunnelClient(dialer)
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.echoURL, nil)
	if err != nil {
		result.SetFailure(model.FailureUnknown, err.Error())
		return result
	}

	resp, err := client.Do(req)
	if err != nil {
		result.SetFailure(classifyFailure(err), err.Error())
		return result
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEchoBodyBytes))
	if err != nil {
		result.SetFailure(classifyFailure(err), err.Error())
		return result
	}

	if resp.StatusCode != http.StatusOK {
		result.SetFailure(model.FailureHTTPStatus,
			fmt.Sprintf("echo service returned status %d", resp.StatusCode))
		return result
	}

	result.Working = true
	result.SetLatency(time.Since(started))
	result.ExitIP = exitIPFromBody(body)
	result.SetAnonymity(model.ClassifyAnonymity(p.referenceIP, result.ExitIP))
	return result
}

// newEndpointDialer builds a SOCKS5 dialer for the endpoint, attaching
// username/password authentication when the candidate carries credentials.
func newEndpointDialer(ep model.Endpoint) (proxy.Dialer, error) {
	var auth *proxy.Auth
	if ep.HasAuth() {
		auth = &proxy.Auth{User: ep.User(), Password: ep.Pass()}
	}

	dialer, err := proxy.SOCKS5("tcp", ep.Addr(), auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	return dialer, nil
}

// newTunnelClient creates an HTTP client that routes its single request
// through the endpoint's SOCKS5 tunnel.
//
// Design decisions:
//   - TLS verification is disabled because untrusted proxies routinely
//     intercept with self-signed certificates; we still detect them, because
//     an intercepted echo response reports the wrong exit IP
//   - Keep-alives are disabled since each probe sends exactly one request
//   - Redirects are not followed: a proxy that redirects the echo request is
//     not answering it, and following would poison the latency measurement
//   - Compression is disabled so the measured bytes are the echo payload
func (p *SOCKS5Prober) newTunnelClient(dialer proxy.Dialer) *http.Client {
	transport := &http.Transport{
		// Route every connection through the candidate's SOCKS5 tunnel
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialContext(ctx, dialer, network, addr)
		},
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // untrusted proxies present arbitrary certs
		},
		DisableCompression: true,
		DisableKeepAlives:  true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   p.timeout,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// dialContext bridges the context-less proxy.Dialer interface with context
// cancellation.
//
// Design decision: We dial in a goroutine and select on the context because
// the proxy.Dialer interface doesn't support context directly. If the context
// fires first, a reaper drains the channel and closes whatever connection the
// abandoned dial eventually produces, so cancelled probes don't leak sockets.
func dialContext(ctx context.Context, dialer proxy.Dialer, network, address string) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case result := <-resultCh:
		return result.conn, result.err
	case <-ctx.Done():
		go func() {
			if result := <-resultCh; result.conn != nil {
				result.conn.Close() //nolint:errcheck // best-effort cleanup after cancellation
			}
		}()
		return nil, ctx.Err()
	}
}

// classifyFailure maps a probe error chain onto the failure taxonomy.
//
// The order matters: x/net/proxy wraps every failure, including dial errors
// and I/O timeouts, in a *net.OpError whose Op starts with "socks", so the
// more specific timeout and refused checks must run before the SOCKS check
// claims the error as a protocol mismatch.
func classifyFailure(err error) model.FailureReason {
	switch {
	case isTimeout(err):
		return model.FailureTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		return model.FailureConnectionRefused
	case isSOCKSFailure(err):
		return model.FailureProtocolMismatch
	default:
		return model.FailureUnknown
	}
}

// isTimeout reports whether the error chain represents a deadline expiry,
// whichever layer surfaced it.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isSOCKSFailure reports whether the error chain contains a failure surfaced
// by the SOCKS5 negotiation: version mismatches, rejected auth methods, and
// CONNECT replies other than success all arrive wrapped this way.
func isSOCKSFailure(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && strings.HasPrefix(opErr.Op, "socks")
}

// exitIPFromBody extracts the exit address from an echo response. JSON bodies
// are checked for the keys httpbin-style services use; anything else is
// treated as a raw text response. A comma-joined origin (proxy chains that
// append X-Forwarded-For) is kept verbatim so the anonymity check can see
// every address in it.
func exitIPFromBody(body []byte) string {
	if ip := firstJSONKey(body, "origin", "ip"); ip != "" {
		return ip
	}
	return strings.TrimSpace(string(body))
}

// firstJSONKey decodes body as a JSON object and returns the first non-empty
// string value among keys, in order. Returns an empty string when the body is
// not a JSON object or none of the keys hold a string.
func firstJSONKey(body []byte, keys ...string) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range keys {
		if value, ok := payload[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
