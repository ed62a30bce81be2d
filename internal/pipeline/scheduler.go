package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/probe"
)

// Scheduler fans one probe per candidate out over a bounded worker pool.
// It uses errgroup to manage goroutines and respect the concurrency limit.
//
// Design decision: We use a separate Scheduler rather than putting fan-out
// into the Pipeline because:
// 1. It keeps the Pipeline focused on sequential stage execution
// 2. It allows different scheduling strategies (e.g., pre-filtering, deadlines)
// 3. It provides cleaner separation of concerns
type Scheduler struct {
	// prober validates a single candidate.
	prober probe.Prober

	// workers is the maximum number of probes in flight at once.
	workers int

	// preFilter, when set, runs the raw handshake check before each full
	// probe and eliminates candidates that fail it. Off by default because
	// it doubles the connection attempts against every live endpoint.
	preFilter *probe.HandshakeFilter

	// onProgress, when set, receives a progress event after every result.
	onProgress func(model.Progress)

	// runDeadline, when positive, bounds the whole run. Candidates still
	// waiting when it expires get terminal timeout results instead of probes.
	runDeadline time.Duration

	// logger is used for run-level logging.
	logger *slog.Logger

	// mu serializes the result callback and the progress events.
	mu sync.Mutex
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets a custom logger for the scheduler.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithPreFilter enables the raw handshake pre-filter stage. Candidates that
// fail the greeting are eliminated without a full probe; survivors proceed
// to the tunneled probe as usual. Pre-filter success alone never marks a
// candidate working.
func WithPreFilter(filter *probe.HandshakeFilter) SchedulerOption {
	return func(s *Scheduler) {
		s.preFilter = filter
	}
}

// WithProgress registers a callback that receives a progress event after
// every completed probe. Events arrive serialized; the callback does not
// need its own locking.
func WithProgress(fn func(model.Progress)) SchedulerOption {
	return func(s *Scheduler) {
		s.onProgress = fn
	}
}

// WithRunDeadline bounds the whole run. Zero disables the deadline. When it
// expires, candidates not yet probed resolve to timeout results immediately,
// so the run always terminates with one result per candidate.
func WithRunDeadline(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.runDeadline = d
		}
	}
}

// NewScheduler creates a Scheduler running at most workers probes at once.
// Non-positive workers fall back to 50, matching the default worker budget.
func NewScheduler(prober probe.Prober, workers int, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		prober:  prober,
		workers: workers,
	}
	if s.workers <= 0 {
		s.workers = 50
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Workers returns the configured worker budget.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Run probes every candidate and delivers each terminal result to the
// callback in completion order. The callback is serialized by the
// scheduler's mutex, so it may touch shared state without locking.
//
// Design decision: We use errgroup.SetLimit rather than a hand-rolled worker
// pool because it's simpler and errgroup handles the concurrency correctly.
// Each candidate gets its own goroutine, but only 'workers' goroutines run
// simultaneously.
//
// Probe failures are data, never errors: every goroutine returns nil to the
// errgroup, so one dead endpoint cannot cancel its siblings. Cancellation of
// the context (or expiry of the optional run deadline) converts the
// remaining candidates into terminal timeout results rather than dropping
// them, so every accepted candidate resolves exactly once.
func (s *Scheduler) Run(ctx context.Context, candidates []model.Endpoint, callback func(*model.ProbeResult)) error {
	s.logger.Info("starting validation run",
		"total_candidates", len(candidates),
		"workers", s.workers,
		"prefilter", s.preFilter != nil,
	)

	startTime := time.Now()

	if s.runDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runDeadline)
		defer cancel()
	}

	tracker := model.NewProgressTracker(len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	working := 0
	for _, ep := range candidates {
		g.Go(func() error {
			result := s.probeOne(ctx, ep)

			s.mu.Lock()
			if callback != nil {
				callback(result)
			}
			if result.Working {
				working++
			}
			progress := tracker.Record(result.Working)
			if s.onProgress != nil {
				s.onProgress(progress)
			}
			s.mu.Unlock()

			// Never return the probe outcome to the errgroup - failures are
			// recorded on the result and must not cancel sibling probes.
			return nil
		})
	}

	err := g.Wait()

	s.logger.Info("validation run complete",
		"total_candidates", len(candidates),
		"working", working,
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	return err
}

// probeOne resolves a single candidate to its terminal result, applying the
// optional pre-filter first and short-circuiting when the run is already
// cancelled.
func (s *Scheduler) probeOne(ctx context.Context, ep model.Endpoint) *model.ProbeResult {
	// A cancelled run still owes every candidate a terminal result.
	select {
	case <-ctx.Done():
		return cancelledResult(ep, ctx.Err())
	default:
	}

	if s.preFilter != nil {
		if status := s.preFilter.Check(ctx, ep); status != probe.ProxyStatusOK {
			s.logger.Debug("candidate eliminated by handshake pre-filter",
				"endpoint", ep.Addr(),
				"status", status.String(),
			)
			return s.preFilter.Eliminate(ep, status)
		}
	}

	return s.prober.Probe(ctx, ep)
}

// cancelledResult builds the terminal result for a candidate whose probe
// never started because the run's context ended first.
func cancelledResult(ep model.Endpoint, err error) *model.ProbeResult {
	result := model.NewProbeResult(ep)
	if errors.Is(err, context.DeadlineExceeded) {
		result.SetFailure(model.FailureTimeout, "run deadline expired before probe started")
	} else {
		result.SetFailure(model.FailureUnknown, "run cancelled before probe started")
	}
	return result
}
