package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/proxylist"
)

const (
	// DefaultSourceTimeout is the per-source fetch deadline.
	DefaultSourceTimeout = 30 * time.Second

	// DefaultPoliteness is the minimum gap between source fetches.
	// Several catalog entries live on the same hosts (raw.githubusercontent.com,
	// api.proxyscrape.com), so fetches are spaced out rather than fired at once.
	DefaultPoliteness = 500 * time.Millisecond

	// defaultUserAgent mimics a common browser. Some aggregator APIs serve
	// empty lists or block requests with non-browser agents.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// maxSourceBodyBytes caps how much of a source body is read.
	maxSourceBodyBytes = 10 * 1024 * 1024 // 10MB

	// maxErrorLength caps the diagnostic text recorded per failed source.
	maxErrorLength = 100
)

// SourceStatus records the outcome of fetching one source.
type SourceStatus struct {
	// Name is the source's catalog label.
	Name string `json:"name"`
	// URL is the fetched location.
	URL string `json:"url"`
	// Success is true when the fetch returned HTTP 200.
	Success bool `json:"success"`
	// Count is the number of candidates extracted from this source,
	// before cross-source deduplication.
	Count int `json:"count"`
	// Error is the failure diagnostic, empty on success.
	Error string `json:"error,omitempty"`
}

// Status is the source-status document written next to the collected list.
type Status struct {
	// CollectedAt is when the collection finished.
	CollectedAt time.Time `json:"collected_at"`
	// Total is the number of unique candidates across all sources.
	Total int `json:"total"`
	// Sources holds one status per catalog entry, in catalog order.
	Sources []SourceStatus `json:"sources"`
}

// Collection is the outcome of one collection pass: the deduplicated
// candidate list plus per-source statuses.
type Collection struct {
	// CollectedAt is when the collection finished.
	CollectedAt time.Time
	// Endpoints is the unique candidate list, sorted lexically.
	Endpoints []model.Endpoint
	// Sources holds one status per catalog entry, in catalog order.
	Sources []SourceStatus
}

// Status builds the serializable status document for this collection.
func (c *Collection) Status() Status {
	return Status{
		CollectedAt: c.CollectedAt,
		Total:       len(c.Endpoints),
		Sources:     c.Sources,
	}
}

// Successful returns the statuses of sources that were fetched and parsed.
func (c *Collection) Successful() []SourceStatus {
	out := make([]SourceStatus, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.Success {
			out = append(out, s)
		}
	}
	return out
}

// Failed returns the statuses of sources that could not be fetched.
func (c *Collection) Failed() []SourceStatus {
	out := make([]SourceStatus, 0, len(c.Sources))
	for _, s := range c.Sources {
		if !s.Success {
			out = append(out, s)
		}
	}
	return out
}

// Collector fetches candidate endpoints from a catalog of public sources.
//
// Design decision: Sources are fetched sequentially with a rate limiter
// rather than concurrently because:
// 1. Collection is not latency-sensitive; probing dominates the run
// 2. Many catalog entries share hosts, and hammering them gets lists blocked
// 3. Sequential statuses keep the output document in catalog order
type Collector struct {
	// sources is the catalog to fetch, in order.
	sources []Source

	// client performs the fetches.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// timeout bounds each individual source fetch.
	timeout time.Duration

	// limiter spaces fetches out. Nil disables politeness entirely.
	limiter *rate.Limiter

	// logger for structured logging.
	logger *slog.Logger
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) CollectorOption {
	return func(c *Collector) {
		c.client = client
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) CollectorOption {
	return func(c *Collector) {
		c.userAgent = ua
	}
}

// WithSourceTimeout sets the per-source fetch deadline.
func WithSourceTimeout(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPoliteness sets the minimum gap between source fetches.
// Non-positive values disable the spacing, which tests rely on.
func WithPoliteness(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = logger
	}
}

// NewCollector creates a Collector over the given source catalog.
func NewCollector(sources []Source, opts ...CollectorOption) *Collector {
	c := &Collector{
		sources:   sources,
		client:    &http.Client{},
		userAgent: defaultUserAgent,
		timeout:   DefaultSourceTimeout,
		limiter:   rate.NewLimiter(rate.Every(DefaultPoliteness), 1),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SourceCount returns the number of catalog entries.
func (c *Collector) SourceCount() int {
	return len(c.sources)
}

// Collect fetches every source and returns the merged, deduplicated,
// lexically sorted candidate list with per-source statuses. A failing
// source is recorded in its status and never aborts the pass; only
// context cancellation does.
func (c *Collector) Collect(ctx context.Context) (*Collection, error) {
	c.logger.Info("collecting candidates", "sources", len(c.sources))

	var all []model.Endpoint
	statuses := make([]SourceStatus, 0, len(c.sources))

	for _, src := range c.sources {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("collection cancelled: %w", err)
			}
		}

		endpoints, status := c.fetchSource(ctx, src)
		statuses = append(statuses, status)

		if status.Success {
			c.logger.Debug("source fetched",
				"source", status.Name,
				"count", status.Count,
			)
			all = append(all, endpoints...)
		} else {
			c.logger.Warn("source failed",
				"source", status.Name,
				"error", status.Error,
			)
		}
	}

	unique := proxylist.Dedupe(all)
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})

	collection := &Collection{
		CollectedAt: time.Now(),
		Endpoints:   unique,
		Sources:     statuses,
	}

	c.logger.Info("collection complete",
		"total", len(unique),
		"successful_sources", len(collection.Successful()),
		"failed_sources", len(collection.Failed()),
	)

	return collection, nil
}

// fetchSource fetches and extracts one source. Failures are recorded in the
// returned status, never raised.
func (c *Collector) fetchSource(ctx context.Context, src Source) ([]model.Endpoint, SourceStatus) {
	status := SourceStatus{Name: src.Name, URL: src.URL}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		status.Error = shortError(err)
		return nil, status
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/plain,application/json;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		if isFetchTimeout(err) {
			status.Error = "timeout"
		} else {
			status.Error = shortError(err)
		}
		return nil, status
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		status.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return nil, status
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBodyBytes))
	if err != nil {
		status.Error = shortError(err)
		return nil, status
	}

	endpoints := extractEndpoints(src, body)
	status.Success = true
	status.Count = len(endpoints)
	return endpoints, status
}

// extractEndpoints picks the extraction strategy for a source. JSON sources
// that fail to decode fall back to text extraction: several aggregators
// advertise JSON but serve plain lists when their backend degrades.
func extractEndpoints(src Source, body []byte) []model.Endpoint {
	if src.Type == SourceTypeJSON {
		endpoints, err := proxylist.ExtractFromJSON(body, src.JSONPath)
		if err == nil {
			return endpoints
		}
	}
	return proxylist.ExtractFromText(string(body))
}

// isFetchTimeout reports whether a fetch error is a deadline expiry.
func isFetchTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// shortError renders an error for the status document, truncated so one
// source cannot bloat the file.
func shortError(err error) string {
	msg := err.Error()
	if len(msg) > maxErrorLength {
		return msg[:maxErrorLength]
	}
	return msg
}
