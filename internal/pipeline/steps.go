package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/probe"
)

// ReferenceIPResolver discovers the caller's own public address. It is
// implemented by probe.RefIPResolver; the step accepts the interface so
// tests can substitute a fake.
type ReferenceIPResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// ResolveReferenceIPStep discovers the caller's own public address before
// fan-out so every probe can classify anonymity against it.
//
// Design decision: The reference IP is resolved exactly once per run, as its
// own step, because:
// 1. Probes must never trigger concurrent re-resolution
// 2. Failure here is survivable and must not abort the run
// 3. The resolved address is run state, like candidates and results
type ResolveReferenceIPStep struct {
	// resolver queries the echo services.
	resolver ReferenceIPResolver

	// logger for structured logging.
	logger *slog.Logger
}

// ResolveReferenceIPStepOption configures a ResolveReferenceIPStep.
type ResolveReferenceIPStepOption func(*ResolveReferenceIPStep)

// WithResolveLogger sets a custom logger for the resolve step.
func WithResolveLogger(logger *slog.Logger) ResolveReferenceIPStepOption {
	return func(s *ResolveReferenceIPStep) {
		s.logger = logger
	}
}

// NewResolveReferenceIPStep creates the reference IP resolution step.
// A nil resolver is replaced with one over the default echo services.
func NewResolveReferenceIPStep(resolver ReferenceIPResolver, opts ...ResolveReferenceIPStepOption) *ResolveReferenceIPStep {
	s := &ResolveReferenceIPStep{
		resolver: resolver,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.resolver == nil {
		s.resolver = probe.NewRefIPResolver(s.logger)
	}

	return s
}

// Name returns the step name.
func (s *ResolveReferenceIPStep) Name() string {
	return "resolve_reference_ip"
}

// Do resolves the reference IP into the run state. Failure of every echo
// service is downgraded to a warning: the run proceeds with anonymity
// classification disabled rather than aborting.
func (s *ResolveReferenceIPStep) Do(ctx context.Context, state *RunState) error {
	ip, err := s.resolver.Resolve(ctx)
	if err != nil {
		s.logger.Warn("reference IP unavailable, anonymity classification disabled",
			"error", err,
		)
		return nil
	}

	state.ReferenceIP = ip
	state.Results.ReferenceIP = ip
	s.logger.Info("reference IP resolved", "reference_ip", ip)
	return nil
}

// ProbeStep validates every candidate through the concurrent scheduler.
//
// The prober is built inside Do rather than up front because it needs the
// reference IP that the resolve step put into the run state.
type ProbeStep struct {
	// echoURL is the service each probe fetches through its tunnel.
	echoURL string

	// timeout is the per-probe deadline.
	timeout time.Duration

	// workers is the probe concurrency budget.
	workers int

	// preFilter, when set, is handed to the scheduler.
	preFilter *probe.HandshakeFilter

	// runDeadline, when positive, bounds the whole probing stage.
	runDeadline time.Duration

	// onProgress receives progress events from the scheduler.
	onProgress func(model.Progress)

	// logger for structured logging.
	logger *slog.Logger
}

// ProbeStepOption configures a ProbeStep.
type ProbeStepOption func(*ProbeStep)

// WithProbePreFilter enables the handshake pre-filter for the probing stage.
func WithProbePreFilter(filter *probe.HandshakeFilter) ProbeStepOption {
	return func(s *ProbeStep) {
		s.preFilter = filter
	}
}

// WithProbeRunDeadline bounds the whole probing stage. Zero disables it.
func WithProbeRunDeadline(d time.Duration) ProbeStepOption {
	return func(s *ProbeStep) {
		s.runDeadline = d
	}
}

// WithProbeProgress registers a progress callback for the probing stage.
func WithProbeProgress(fn func(model.Progress)) ProbeStepOption {
	return func(s *ProbeStep) {
		s.onProgress = fn
	}
}

// WithProbeLogger sets a custom logger for the probe step.
func WithProbeLogger(logger *slog.Logger) ProbeStepOption {
	return func(s *ProbeStep) {
		s.logger = logger
	}
}

// NewProbeStep creates the probing step.
func NewProbeStep(echoURL string, timeout time.Duration, workers int, opts ...ProbeStepOption) *ProbeStep {
	s := &ProbeStep{
		echoURL: echoURL,
		timeout: timeout,
		workers: workers,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return "probe"
}

// Do fans the probes out and streams every terminal result into the run
// state's result set.
func (s *ProbeStep) Do(ctx context.Context, state *RunState) error {
	if len(state.Candidates) == 0 {
		s.logger.Info("no candidates to probe")
		return nil
	}

	prober := probe.NewSOCKS5Prober(s.echoURL, s.timeout, state.ReferenceIP)

	scheduler := NewScheduler(prober, s.workers,
		WithSchedulerLogger(s.logger),
		WithPreFilter(s.preFilter),
		WithProgress(s.onProgress),
		WithRunDeadline(s.runDeadline),
	)

	return scheduler.Run(ctx, state.Candidates, func(result *model.ProbeResult) {
		state.Results.Add(result)
	})
}

// CountryResolver looks up the country for an IP address. Implementations
// live in the geo package; the step accepts the interface so tests can
// substitute a fake and runs without enrichment can pass nil.
type CountryResolver interface {
	Country(ctx context.Context, ip string) (string, error)
}

// EnrichStep annotates working results with their exit country.
//
// Design decision: Enrichment runs after probing, over working results only,
// because country lookups cost a request (or a database read) each and dead
// endpoints would waste that budget for data nobody reports.
type EnrichStep struct {
	// resolver performs the lookups; nil skips the step entirely.
	resolver CountryResolver

	// logger for structured logging.
	logger *slog.Logger
}

// EnrichStepOption configures an EnrichStep.
type EnrichStepOption func(*EnrichStep)

// WithEnrichLogger sets a custom logger for the enrich step.
func WithEnrichLogger(logger *slog.Logger) EnrichStepOption {
	return func(s *EnrichStep) {
		s.logger = logger
	}
}

// NewEnrichStep creates the country enrichment step.
func NewEnrichStep(resolver CountryResolver, opts ...EnrichStepOption) *EnrichStep {
	s := &EnrichStep{
		resolver: resolver,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *EnrichStep) Name() string {
	return "enrich"
}

// Do looks up the country for every working result. Individual lookup
// failures are logged and skipped; the step only fails on cancellation.
func (s *EnrichStep) Do(ctx context.Context, state *RunState) error {
	if s.resolver == nil {
		s.logger.Debug("skipping enrichment, no country resolver configured")
		return nil
	}

	enriched := 0
	for _, result := range state.Results.Working() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		country, err := s.resolver.Country(ctx, lookupAddress(result))
		if err != nil {
			s.logger.Debug("country lookup failed",
				"endpoint", result.Endpoint.Addr(),
				"error", err,
			)
			continue
		}
		result.Country = country
		enriched++
	}

	s.logger.Info("enrichment completed", "enriched", enriched)
	return nil
}

// lookupAddress picks the address to geolocate: the first exit IP when the
// probe saw one (that is where the traffic actually surfaced), falling back
// to the endpoint host.
func lookupAddress(result *model.ProbeResult) string {
	if result.ExitIP != "" {
		first := strings.TrimSpace(strings.Split(result.ExitIP, ",")[0])
		if first != "" {
			return first
		}
	}
	return result.Host
}

// SummarizeStep computes the run's aggregate statistics from the result set.
type SummarizeStep struct {
	// fastBelow and slowFrom are the configured speed tier bounds.
	fastBelow time.Duration
	slowFrom  time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// SummarizeStepOption configures a SummarizeStep.
type SummarizeStepOption func(*SummarizeStep)

// WithSummarizeLogger sets a custom logger for the summarize step.
func WithSummarizeLogger(logger *slog.Logger) SummarizeStepOption {
	return func(s *SummarizeStep) {
		s.logger = logger
	}
}

// NewSummarizeStep creates the summary step with the given tier bounds.
func NewSummarizeStep(fastBelow, slowFrom time.Duration, opts ...SummarizeStepOption) *SummarizeStep {
	s := &SummarizeStep{
		fastBelow: fastBelow,
		slowFrom:  slowFrom,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SummarizeStep) Name() string {
	return "summarize"
}

// Do computes the summary into the run state. An empty result set yields a
// zeroed summary, which is a valid outcome.
func (s *SummarizeStep) Do(_ context.Context, state *RunState) error {
	state.Summary = state.Results.Summarize(s.fastBelow, s.slowFrom)

	s.logger.Info("run summarized",
		"total", state.Summary.Total,
		"working", state.Summary.Working,
		"anonymous", state.Summary.Anonymous,
	)
	return nil
}
