package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// defaultEchoServices are queried in order until one reports the caller's
// public address. The mix of JSON and plain-text services means an outage or
// format change at any single provider does not blind the whole run.
var defaultEchoServices = []string{
	"https://api.ipify.org?format=json",
	"https://ipinfo.io/json",
	"https://api.ip.sb/ip",
	"http://ip-api.com/json",
}

// refIPServiceTimeout bounds each echo service attempt. Generous because the
// reference IP is resolved exactly once per run, before any probing starts.
const refIPServiceTimeout = 10 * time.Second

// RefIPResolver discovers the caller's own public IP address by asking echo
// services directly, without any proxy in between. The resolved address is
// the reference every probe compares exit IPs against: a proxy that leaks it
// is transparent, one that hides it is anonymous.
//
// Design decision: Resolution failure is not fatal. A run behind a broken
// network path to every echo service can still validate proxies; it just
// reports every anonymity as unknown instead of guessing.
type RefIPResolver struct {
	// services are tried in order; the first usable answer wins.
	services []string

	// client performs the direct (untunneled) requests.
	client *http.Client

	// logger records per-service failures at debug level.
	logger *slog.Logger
}

// NewRefIPResolver creates a resolver over the default echo services.
// A nil logger falls back to slog.Default().
func NewRefIPResolver(logger *slog.Logger) *RefIPResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefIPResolver{
		services: defaultEchoServices,
		client:   &http.Client{Timeout: refIPServiceTimeout},
		logger:   logger,
	}
}

// Resolve queries the echo services in order and returns the first address
// that parses as an IP. It returns ErrNoEchoService when every service fails,
// which callers should treat as "anonymity classification unavailable", not
// as a reason to abort the run.
func (r *RefIPResolver) Resolve(ctx context.Context) (string, error) {
	for _, service := range r.services {
		ip, err := r.query(ctx, service)
		if err != nil {
			r.logger.Debug("echo service failed", "service", service, "error", err)
			continue
		}
		return ip, nil
	}
	return "", ErrNoEchoService
}

// query fetches one echo service and extracts the reported address.
func (r *RefIPResolver) query(ctx context.Context, service string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, refIPServiceTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, service, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build echo request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("echo request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response body

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("echo service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEchoBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read echo response: %w", err)
	}

	ip := addressFromBody(body)
	if net.ParseIP(ip) == nil {
		// A 200 with garbage (captive portal, HTML error page) must not
		// poison anonymity classification for the whole run.
		return "", fmt.Errorf("echo service returned unparseable address %q", truncate(ip, 64))
	}
	return ip, nil
}

// addressFromBody extracts the caller's address from an echo response. JSON
// bodies are checked for the keys the default services use ("ip" for ipify
// and ipinfo, "query" for ip-api); plain-text services return the bare
// address.
func addressFromBody(body []byte) string {
	if ip := firstJSONKey(body, "ip", "query", "origin"); ip != "" {
		return ip
	}
	return strings.TrimSpace(string(body))
}

// truncate shortens s for diagnostics.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
