package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/collect"
	"github.com/adrg/xdg"
)

// Default configuration values.
// These values mirror the behavior of well-known public proxy checkers and
// are tuned for lists of thousands of mostly-dead candidates.
const (
	// DefaultEchoURL is the echo service each probe fetches through the
	// candidate proxy. httpbin.org/ip returns the caller's address as JSON,
	// which gives us both the working verdict and the exit IP in one request.
	DefaultEchoURL = "http://httpbin.org/ip"

	// DefaultTimeout is the per-probe deadline. Public SOCKS5 proxies are
	// slow when they work at all; 10 seconds keeps throughput reasonable
	// while not discarding usable-but-distant endpoints.
	DefaultTimeout = 10 * time.Second

	// DefaultWorkers is the number of concurrent probes. Candidate lists
	// run to tens of thousands of entries, most of them dead, so a high
	// budget matters. 50 keeps file descriptor usage modest on default
	// ulimits.
	DefaultWorkers = 50

	// MaxWorkers caps the worker budget. Beyond this the bottleneck is the
	// local network stack, and ephemeral port exhaustion starts producing
	// false connection failures.
	MaxWorkers = 512

	// DefaultFastBelowMS is the upper bound (exclusive) of the Fast speed
	// tier in milliseconds.
	DefaultFastBelowMS = 1000

	// DefaultSlowFromMS is the lower bound (inclusive) of the Slow speed
	// tier in milliseconds. Latencies between the two bounds are Medium.
	DefaultSlowFromMS = 3000

	// DefaultOutputDir is where report files are written.
	DefaultOutputDir = "."

	// AppName is the application name used for XDG directory paths.
	AppName = "proxyscan"
)

// Config holds all configuration options for proxyscan.
// This struct is designed to be populated from a YAML file and CLI flags and
// passed through the application via dependency injection rather than global
// state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ProbeConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Input is where candidates come from: a file path, an http(s) URL, or
	// "-" for stdin. Mutually exclusive with Collect.
	Input string `yaml:"input,omitempty"`

	// Collect pulls candidates from the built-in public source catalog
	// instead of Input. Mutually exclusive with Input.
	Collect bool `yaml:"collect,omitempty"`

	// OutputDir is the directory report files are written to.
	// Created on demand with MkdirAll.
	OutputDir string `yaml:"output_dir,omitempty"`

	// Workers is the number of concurrent probes. At no instant are more
	// than this many probes in flight. Valid range is 1 to MaxWorkers.
	Workers int `yaml:"workers,omitempty"`

	// Timeout is the per-probe deadline covering the SOCKS5 dial, the
	// tunneled HTTP request, and the body read. It is not an overall run
	// limit; see RunDeadline for that.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// EchoURL is the HTTP endpoint fetched through each candidate. A probe
	// counts as working only when this request completes with status 200.
	EchoURL string `yaml:"echo_url,omitempty"`

	// PreFilter enables the raw SOCKS5 handshake pre-filter that eliminates
	// obviously dead candidates before the full probe. Off by default: it
	// doubles connection attempts against slow targets for marginal savings.
	PreFilter bool `yaml:"prefilter,omitempty"`

	// RunDeadline is an optional whole-run time budget. When it expires,
	// candidates that have not started probing fail immediately instead of
	// waiting for a worker. Zero disables the budget.
	RunDeadline time.Duration `yaml:"run_deadline,omitempty"`

	// FastBelowMS is the Fast tier bound in milliseconds: working proxies
	// with latency strictly below it are Fast.
	FastBelowMS int `yaml:"fast_below_ms,omitempty"`

	// SlowFromMS is the Slow tier bound in milliseconds: working proxies
	// with latency at or above it are Slow. Must exceed FastBelowMS.
	SlowFromMS int `yaml:"slow_from_ms,omitempty"`

	// Geo enables country enrichment of working results. Lookups use the
	// MaxMind database at GeoIPDB when set, the free ip-api.com service
	// otherwise.
	Geo bool `yaml:"geo,omitempty"`

	// GeoIPDB is the path to a MaxMind country database (.mmdb). Only
	// consulted when Geo is true.
	GeoIPDB string `yaml:"geoip_db,omitempty"`

	// Archive saves the run and its results to the SQLite archive so the
	// compare subcommand can diff runs. The engine itself stays stateless;
	// the archive is purely an output sink.
	Archive bool `yaml:"archive,omitempty"`

	// DBDir is the directory holding the archive database. When empty, the
	// XDG data directory is used (~/.local/share/proxyscan on Linux).
	DBDir string `yaml:"db_dir,omitempty"`

	// PlainReport writes the working list as ip:port[:user:pass] lines.
	PlainReport bool `yaml:"plain,omitempty"`

	// TelegramReport writes tg:// share links for each working proxy.
	TelegramReport bool `yaml:"telegram,omitempty"`

	// JSONReport writes the working list with full probe detail as JSON.
	JSONReport bool `yaml:"json,omitempty"`

	// MarkdownReport writes a GitHub Flavored Markdown report with tables
	// and a tier pie chart.
	MarkdownReport bool `yaml:"markdown,omitempty"`

	// ExtraSources extends the built-in collection catalog with additional
	// public sources.
	ExtraSources []collect.Source `yaml:"extra_sources,omitempty"`

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool `yaml:"verbose,omitempty"`

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches for .proxyscan.yaml in the current directory and then
	// in the user's home directory. Never read from YAML itself.
	ConfigFilePath string `yaml:"-"`
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, worker
// budget). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:   DefaultOutputDir,
		Workers:     DefaultWorkers,
		Timeout:     DefaultTimeout,
		EchoURL:     DefaultEchoURL,
		FastBelowMS: DefaultFastBelowMS,
		SlowFromMS:  DefaultSlowFromMS,
		PlainReport: true,
	}
}

// FastBelow returns the Fast tier bound as a duration.
func (c *Config) FastBelow() time.Duration {
	return time.Duration(c.FastBelowMS) * time.Millisecond
}

// SlowFrom returns the Slow tier bound as a duration.
func (c *Config) SlowFrom() time.Duration {
	return time.Duration(c.SlowFromMS) * time.Millisecond
}

// DatabaseDir returns the directory for the archive database, falling back
// to the XDG data directory when none is configured.
func (c *Config) DatabaseDir() string {
	if c.DBDir != "" {
		return c.DBDir
	}
	return XDGDataDir()
}

// Sources returns the collection catalog: the built-in sources followed by
// any extras from the configuration file.
func (c *Config) Sources() []collect.Source {
	return append(collect.DefaultSources(), c.ExtraSources...)
}

// XDGDataDir returns the XDG data directory for proxyscan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/proxyscan
// On macOS: ~/Library/Application Support/proxyscan
// On Windows: %LOCALAPPDATA%\proxyscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any probing begins; probe
// failures afterwards are data, never fatal.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// Candidates must come from somewhere: an input list or the catalog
	if c.Input == "" && !c.Collect {
		return ErrNoInput
	}

	// But not from both at once
	if c.Input != "" && c.Collect {
		return ErrConflictingInputs
	}

	// Worker budget must be inside the supported range
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return ErrInvalidWorkers
	}

	// Timeout must be positive; zero timeout would fail every probe instantly
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// Tier bounds must describe three non-empty buckets
	if c.FastBelowMS <= 0 || c.SlowFromMS <= c.FastBelowMS {
		return ErrInvalidTierBounds
	}

	// The echo URL must be an absolute http(s) URL
	if !validEchoURL(c.EchoURL) {
		return ErrInvalidEchoURL
	}

	// RunDeadline of zero disables the budget; negative is invalid
	if c.RunDeadline < 0 {
		return ErrInvalidRunDeadline
	}

	return nil
}

// validEchoURL reports whether raw is an absolute http or https URL.
func validEchoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
