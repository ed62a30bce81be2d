package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoInput is returned when no candidate source is specified.
	// This error occurs when neither an input list (file, URL, stdin) nor
	// collect mode provides candidates.
	ErrNoInput = errors.New("no input specified: provide a candidate list file, URL, or '-' for stdin, or use --collect")

	// ErrConflictingInputs is returned when both an input list and collect
	// mode are specified. Candidates come from exactly one place per run.
	ErrConflictingInputs = errors.New("conflicting inputs: an input list and --collect cannot be used together")

	// ErrInvalidWorkers is returned when the worker budget is outside the
	// supported range. Zero workers would mean no probing at all; budgets
	// beyond MaxWorkers exhaust ephemeral ports.
	ErrInvalidWorkers = errors.New("invalid workers: must be between 1 and 512")

	// ErrInvalidTimeout is returned when the per-probe timeout is not positive.
	// A timeout of zero or negative would fail every probe immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidTierBounds is returned when the speed tier thresholds do not
	// describe three non-empty buckets (fast below < slow from).
	ErrInvalidTierBounds = errors.New("invalid tier bounds: fast_below_ms must be positive and below slow_from_ms")

	// ErrInvalidEchoURL is returned when the echo URL is not an absolute
	// http or https URL. Probes cannot succeed against an unfetchable target.
	ErrInvalidEchoURL = errors.New("invalid echo URL: must be an absolute http or https URL")

	// ErrInvalidRunDeadline is returned when the whole-run deadline is
	// negative. Use 0 to disable the run budget.
	ErrInvalidRunDeadline = errors.New("invalid run deadline: must be non-negative")
)
