package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// defaultAPIBaseURL is the free geolocation service the resolver queries.
	defaultAPIBaseURL = "http://ip-api.com"

	// apiQueryTimeout bounds each lookup request. Enrichment runs after
	// probing, so a slow lookup only delays reports, never probes.
	apiQueryTimeout = 3 * time.Second

	// defaultRequestsPerMinute stays under the service's free-tier ceiling
	// of 45 requests per minute.
	defaultRequestsPerMinute = 40

	// maxAPIBodyBytes caps the lookup response read.
	maxAPIBodyBytes = 4 * 1024
)

// APIResolver answers country lookups over the ip-api.com JSON endpoint.
//
// Design decision: every lookup failure resolves to UnknownCountry instead
// of an error. Enrichment is decoration: a proxy whose country cannot be
// determined is still a working proxy, and failing the run over a
// geolocation outage would throw away probe results that took minutes to
// gather. Only context cancellation surfaces as an error.
type APIResolver struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// APIResolverOption configures an APIResolver.
type APIResolverOption func(*APIResolver)

// WithBaseURL overrides the lookup service base URL.
func WithBaseURL(baseURL string) APIResolverOption {
	return func(r *APIResolver) {
		r.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for lookups.
func WithHTTPClient(client *http.Client) APIResolverOption {
	return func(r *APIResolver) {
		r.client = client
	}
}

// WithRequestsPerMinute adjusts the lookup rate limit. Non-positive values
// disable rate limiting entirely.
func WithRequestsPerMinute(n int) APIResolverOption {
	return func(r *APIResolver) {
		if n <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithLogger sets the logger for lookup diagnostics.
func WithLogger(logger *slog.Logger) APIResolverOption {
	return func(r *APIResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewAPIResolver creates a resolver backed by ip-api.com.
func NewAPIResolver(opts ...APIResolverOption) *APIResolver {
	r := &APIResolver{
		baseURL: defaultAPIBaseURL,
		client:  &http.Client{Timeout: apiQueryTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/defaultRequestsPerMinute), 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Country looks up the country code for the address. Any fetch, status, or
// decode failure yields UnknownCountry with a nil error.
func (r *APIResolver) Country(ctx context.Context, ip string) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("country lookup cancelled: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, apiQueryTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/json/%s?fields=countryCode", r.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.logger.Debug("country lookup request failed", "ip", ip, "error", err)
		return UnknownCountry, nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("country lookup failed", "ip", ip, "error", err)
		return UnknownCountry, nil
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		r.logger.Debug("country lookup failed", "ip", ip, "status", resp.StatusCode)
		return UnknownCountry, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIBodyBytes))
	if err != nil {
		r.logger.Debug("country lookup read failed", "ip", ip, "error", err)
		return UnknownCountry, nil
	}

	var payload struct {
		CountryCode string `json:"countryCode"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.CountryCode == "" {
		return UnknownCountry, nil
	}
	return payload.CountryCode, nil
}

// Close implements Resolver. The API resolver holds no resources.
func (r *APIResolver) Close() error {
	return nil
}

var _ Resolver = (*APIResolver)(nil)
