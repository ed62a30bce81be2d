package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// RunState accumulates everything a validation run produces as it flows
// through the pipeline steps: the candidates going in, the reference IP
// resolved before fan-out, and the results and summary coming out.
type RunState struct {
	// Candidates are the deduplicated endpoints awaiting probing.
	Candidates []model.Endpoint

	// ReferenceIP is the caller's own public address. Empty when resolution
	// failed; anonymity classification is disabled for the whole run then.
	ReferenceIP string

	// Results collects one terminal result per candidate.
	Results *model.ResultSet

	// Summary holds the aggregate statistics, computed after probing.
	Summary model.Summary

	// StartedAt is when the run began.
	StartedAt time.Time

	// PerformedSteps records the names of executed steps in order.
	PerformedSteps []string

	// Cancelled reports whether the run was cut short by its context.
	Cancelled bool

	// Err and ErrMessage record a step failure. With continue-on-error
	// configured, later steps still see the failure here.
	Err        error  `json:"-"`
	ErrMessage string `json:"error,omitempty"`
}

// NewRunState creates a RunState over the given candidates with an empty
// result set and StartedAt set to now.
func NewRunState(candidates []model.Endpoint) *RunState {
	return &RunState{
		Candidates: candidates,
		Results:    model.NewResultSet(),
		StartedAt:  time.Now(),
	}
}

// recordFailure notes a step error on the state so later steps and the
// final report can see what went wrong mid-run.
func (s *RunState) recordFailure(err error) {
	s.Err = err
	s.ErrMessage = err.Error()
}

// Step is one stage of a validation run. Steps execute in sequence and
// communicate only through the shared RunState.
//
// Design decision: steps are an interface instead of plain functions so
// each one can carry its own configuration (worker count, timeouts, geo
// resolver) and report a stable Name for logs and the PerformedSteps trail.
type Step interface {
	// Do runs the step against the accumulated state. Fatal problems are
	// returned; recoverable ones should be recorded on the state instead.
	Do(ctx context.Context, state *RunState) error

	// Name identifies the step in logs.
	Name() string
}

// Pipeline executes an ordered list of steps against one RunState.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger routes the pipeline's step logging to the given logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps the pipeline running after a step fails, with
// the failure recorded on the run state instead of aborting.
//
// Design decision: validation runs enable this because losing the geo
// database mid-run should not throw away probe results that are already
// in hand. The default stays stop-on-error since an early failure usually
// means the run cannot produce anything useful.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline. Add stages with AddStep.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step. Execution order follows insertion order.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps at once.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step in order against state.
//
// Cancellation is checked between steps, not during them; each step is
// responsible for honoring the context while it runs. When the context
// expires the state is marked Cancelled and the context error returned,
// leaving whatever results earlier steps produced intact.
func (p *Pipeline) Execute(ctx context.Context, state *RunState) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "reason", err)
			state.Cancelled = true
			return err
		}

		if err := p.runStep(ctx, step, state); err != nil {
			state.recordFailure(err)
			if !p.continueOnError {
				return err
			}
		}
		state.PerformedSteps = append(state.PerformedSteps, step.Name())
	}
	return nil
}

// runStep executes a single step with timing and outcome logging.
func (p *Pipeline) runStep(ctx context.Context, step Step, state *RunState) error {
	p.logger.Debug("executing step",
		"step", step.Name(),
		"candidates", len(state.Candidates),
	)

	start := time.Now()
	if err := step.Do(ctx, state); err != nil {
		p.logger.Error("step failed",
			"step", step.Name(),
			"elapsed", time.Since(start),
			"error", err,
		)
		return err
	}

	p.logger.Debug("step completed",
		"step", step.Name(),
		"elapsed", time.Since(start),
	)
	return nil
}

// StepCount returns the number of configured steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
