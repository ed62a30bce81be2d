package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/collect"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/config"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/database"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/geo"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/log"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/pipeline"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/probe"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/proxylist"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/report"
	"github.com/spf13/cobra"
)

// Report file names written into the output directory. The names follow
// the conventions of public SOCKS5 list publishers so downstream tooling
// that consumes those lists keeps working.
const (
	plainReportFile    = "socks5_working.txt"
	telegramReportFile = "socks5_telegram.txt"
	jsonReportFile     = "socks5_working.json"
	markdownReportFile = "socks5_report.md"
)

// progressEvery is how many completed probes pass between progress lines.
const progressEvery = 100

// inputFetchTimeout bounds fetching a candidate list given as a URL.
const inputFetchTimeout = 60 * time.Second

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [input]",
		Short: "Validate SOCKS5 proxy candidates",
		Long: `Scan validates SOCKS5 proxy candidates by tunneling a real HTTP request
through each one. A candidate counts as working only when the request
completes with status 200; answering the SOCKS5 handshake alone proves
nothing about carrying traffic.

The input is a file of ip:port or ip:port:user:pass lines, a URL serving
such a list, or "-" for stdin. With --collect, candidates come from the
built-in catalog of public proxy lists instead.

Working proxies are ranked by latency, classified as anonymous or
transparent against your own address, and written as the selected report
formats. A summary is always printed to the terminal.

Examples:
  # Validate candidates from a local file
  proxyscan scan proxies.txt

  # Read candidates from stdin
  cat proxies.txt | proxyscan scan -

  # Fetch a published list and validate it
  proxyscan scan https://example.com/socks5.txt

  # Collect from the built-in public source catalog and validate
  proxyscan scan --collect

  # Faster runs: more workers, shorter timeout, handshake pre-filter
  proxyscan scan -w 200 -t 5s --prefilter proxies.txt

  # Write every report format and archive the run for later comparison
  proxyscan scan --collect -j -m --telegram --archive

  # Add country information using a local MaxMind database
  proxyscan scan --geoip-db GeoLite2-Country.mmdb proxies.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScanCmd,
	}

	// Input flags
	cmd.Flags().BoolP("collect", "C", false,
		"Collect candidates from the built-in public source catalog instead of an input list")

	// Probe behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent probes (1-512)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-probe deadline covering the SOCKS5 dial and the tunneled request")
	cmd.Flags().StringP("echo-url", "e", config.DefaultEchoURL,
		"Echo service fetched through each candidate to verify it carries traffic")
	cmd.Flags().Bool("prefilter", false,
		"Eliminate candidates that fail a raw SOCKS5 handshake before the full probe")
	cmd.Flags().Duration("run-deadline", 0,
		"Whole-run time budget; candidates still waiting when it expires fail (0 disables)")

	// Speed tier flags
	cmd.Flags().Int("fast-below-ms", config.DefaultFastBelowMS,
		"Latency below which a working proxy counts as fast, in milliseconds")
	cmd.Flags().Int("slow-from-ms", config.DefaultSlowFromMS,
		"Latency at or above which a working proxy counts as slow, in milliseconds")

	// Enrichment flags
	cmd.Flags().BoolP("geo", "g", false,
		"Annotate working proxies with their exit country")
	cmd.Flags().String("geoip-db", "",
		"Path to a MaxMind country database (.mmdb); implies --geo")

	// Report flags
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory report files are written to")
	cmd.Flags().Bool("plain", true,
		"Write the working list as ip:port[:user:pass] lines")
	cmd.Flags().Bool("telegram", false,
		"Write t.me share links for each working proxy")
	cmd.Flags().BoolP("json", "j", false,
		"Write the working list with full probe detail as JSON")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write a Markdown report with ranking tables and a tier chart")

	// Archive flags
	cmd.Flags().BoolP("archive", "a", false,
		"Save the run to the local archive so 'proxyscan compare' can diff runs")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .proxyscan.yaml in current or home directory)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	// Build config from the config file and flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential redaction
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the configuration file and cobra flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the configuration file first so command-line flags can override it.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently fall back to defaults when no file exists.
	cfg := config.NewConfig()
	explicitConfigPath := configFlag != ""
	configPath := config.FindConfigFile(configFlag)
	if configPath != "" {
		cfg, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", configFlag)
	}

	// Flags override file values only when set on the command line, so a
	// config file keeps working alongside ad-hoc flags.
	flags := cmd.Flags()

	if flags.Changed("collect") {
		if cfg.Collect, err = flags.GetBool("collect"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("echo-url") {
		if cfg.EchoURL, err = flags.GetString("echo-url"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("prefilter") {
		if cfg.PreFilter, err = flags.GetBool("prefilter"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("run-deadline") {
		if cfg.RunDeadline, err = flags.GetDuration("run-deadline"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("fast-below-ms") {
		if cfg.FastBelowMS, err = flags.GetInt("fast-below-ms"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("slow-from-ms") {
		if cfg.SlowFromMS, err = flags.GetInt("slow-from-ms"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("geo") {
		if cfg.Geo, err = flags.GetBool("geo"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("geoip-db") {
		if cfg.GeoIPDB, err = flags.GetString("geoip-db"); err != nil {
			return nil, err
		}
		if cfg.GeoIPDB != "" {
			cfg.Geo = true
		}
	}

	if flags.Changed("output-dir") {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("plain") {
		if cfg.PlainReport, err = flags.GetBool("plain"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("telegram") {
		if cfg.TelegramReport, err = flags.GetBool("telegram"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("json") {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("markdown") {
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("archive") {
		if cfg.Archive, err = flags.GetBool("archive"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// The positional argument is the candidate source
	if len(args) > 0 {
		cfg.Input = args[0]
	}

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The logger redacts proxy credentials, which candidate lists scraped from
// public sources routinely carry.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// runScan executes the validation run.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	candidates, err := loadCandidates(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("No valid candidates found. Nothing to test.")
		return nil
	}

	logger.Info("starting validation",
		"candidates", len(candidates),
		"workers", cfg.Workers,
		"timeout", cfg.Timeout,
		"prefilter", cfg.PreFilter,
	)

	// Open the archive up front so a bad database path fails before probing
	var db *database.RunDB
	if cfg.Archive {
		db, err = database.Open(cfg.DatabaseDir(), database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open archive database: %w", err)
		}
		defer db.Close()
		logger.Info("archive database opened", "dir", cfg.DatabaseDir())
	}

	// The geo resolver outlives the pipeline, so it is closed here rather
	// than inside the enrich step
	var resolver geo.Resolver
	if cfg.Geo {
		resolver, err = newCountryResolver(cfg, logger)
		if err != nil {
			return err
		}
		defer resolver.Close()
	}

	fmt.Printf("Testing %d candidates (workers: %d, timeout: %s)...\n\n",
		len(candidates), cfg.Workers, cfg.Timeout)
	startTime := time.Now()

	state := pipeline.NewRunState(candidates)
	p := buildPipeline(cfg, resolver, logger)

	if err := p.Execute(ctx, state); err != nil {
		if state.Results.Len() == 0 {
			return err
		}
		// An interrupted run still reports what it measured
		logger.Warn("run interrupted, reporting partial results", "error", err)
	}

	// The summarize step is skipped when cancellation lands between steps
	if state.Summary.Total == 0 && state.Results.Len() > 0 {
		state.Summary = state.Results.Summarize(cfg.FastBelow(), cfg.SlowFrom())
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nValidation completed in %s\n", elapsed.Round(time.Millisecond))

	reportErr := outputReports(cfg, state.Results)
	if reportErr != nil {
		logger.Error("report output failed", "error", reportErr)
	}

	if err := saveRun(ctx, db, state.Results, state.Summary, logger); err != nil {
		logger.Error("failed to archive run", "error", err)
	}

	return reportErr
}

// buildPipeline assembles the validation pipeline: resolve the reference IP,
// probe every candidate, optionally enrich with countries, then summarize.
func buildPipeline(cfg *config.Config, resolver geo.Resolver, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)

	p.AddStep(pipeline.NewResolveReferenceIPStep(nil,
		pipeline.WithResolveLogger(logger),
	))

	probeOpts := []pipeline.ProbeStepOption{
		pipeline.WithProbeLogger(logger),
		pipeline.WithProbeProgress(progressPrinter()),
	}
	if cfg.PreFilter {
		probeOpts = append(probeOpts, pipeline.WithProbePreFilter(probe.NewHandshakeFilter(cfg.Timeout)))
	}
	if cfg.RunDeadline > 0 {
		probeOpts = append(probeOpts, pipeline.WithProbeRunDeadline(cfg.RunDeadline))
	}
	p.AddStep(pipeline.NewProbeStep(cfg.EchoURL, cfg.Timeout, cfg.Workers, probeOpts...))

	if resolver != nil {
		p.AddStep(pipeline.NewEnrichStep(resolver,
			pipeline.WithEnrichLogger(logger),
		))
	}

	p.AddStep(pipeline.NewSummarizeStep(cfg.FastBelow(), cfg.SlowFrom(),
		pipeline.WithSummarizeLogger(logger),
	))

	return p
}

// newCountryResolver picks the geo lookup backend: the local MaxMind
// database when configured, the free ip-api.com service otherwise.
func newCountryResolver(cfg *config.Config, logger *slog.Logger) (geo.Resolver, error) {
	if cfg.GeoIPDB != "" {
		resolver, err := geo.NewMMDBResolver(cfg.GeoIPDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
		}
		logger.Info("using local GeoIP database", "path", cfg.GeoIPDB)
		return resolver, nil
	}

	logger.Info("using ip-api.com for country lookups")
	return geo.NewAPIResolver(geo.WithLogger(logger)), nil
}

// progressPrinter renders probe progress to stdout as periodic counter lines
// rather than one line per probe: candidate lists run to tens of thousands
// of entries, and per-probe output would bury everything else.
func progressPrinter() func(model.Progress) {
	return func(p model.Progress) {
		if p.Tested%progressEvery != 0 && !p.Done() {
			return
		}
		if p.ETA > 0 && !p.Done() {
			fmt.Printf("  [%d/%d] working: %d, eta: %s\n",
				p.Tested, p.Total, p.Working, p.ETA.Round(time.Second))
			return
		}
		fmt.Printf("  [%d/%d] working: %d\n", p.Tested, p.Total, p.Working)
	}
}

// loadCandidates resolves the candidate list: the public source catalog in
// collect mode, the configured input (file, URL, or stdin) otherwise.
func loadCandidates(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]model.Endpoint, error) {
	if cfg.Collect {
		return collectCandidates(ctx, cfg, logger)
	}

	r, err := openInput(ctx, cfg.Input)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	endpoints, err := proxylist.ParseList(r, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("candidate list loaded",
		"input", cfg.Input,
		"candidates", len(endpoints),
	)
	return endpoints, nil
}

// collectCandidates pulls candidates from the public source catalog.
func collectCandidates(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]model.Endpoint, error) {
	collector := collect.NewCollector(cfg.Sources(), collect.WithLogger(logger))

	fmt.Printf("Collecting candidates from %d public sources...\n", collector.SourceCount())

	collection, err := collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collection failed: %w", err)
	}

	fmt.Printf("Collected %d unique candidates (%d sources ok, %d failed)\n\n",
		len(collection.Endpoints), len(collection.Successful()), len(collection.Failed()))

	return collection.Endpoints, nil
}

// openInput opens the candidate source for reading: "-" selects stdin,
// http(s) URLs are fetched, anything else is a file path.
func openInput(ctx context.Context, input string) (io.ReadCloser, error) {
	if input == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, input, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build input request: %w", err)
		}

		client := &http.Client{Timeout: inputFetchTimeout}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch input list: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("input list fetch returned status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(input) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open input list: %w", err)
	}
	return f, nil
}

// outputReports writes the console summary and every selected report file.
func outputReports(cfg *config.Config, results *model.ResultSet) error {
	console := report.NewConsoleWriter(os.Stdout,
		report.WithConsoleTierBounds(cfg.FastBelow(), cfg.SlowFrom()),
	)
	if _, err := console.Write(results); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if cfg.PlainReport {
		err := writeReportFile(cfg.OutputDir, plainReportFile, results, func(w io.Writer) report.Writer {
			return report.NewPlainWriter(w)
		})
		if err != nil {
			return err
		}
	}

	if cfg.TelegramReport {
		err := writeReportFile(cfg.OutputDir, telegramReportFile, results, func(w io.Writer) report.Writer {
			return report.NewTelegramWriter(w)
		})
		if err != nil {
			return err
		}
	}

	if cfg.JSONReport {
		err := writeReportFile(cfg.OutputDir, jsonReportFile, results, func(w io.Writer) report.Writer {
			return report.NewJSONWriter(w)
		})
		if err != nil {
			return err
		}
	}

	if cfg.MarkdownReport {
		err := writeReportFile(cfg.OutputDir, markdownReportFile, results, func(w io.Writer) report.Writer {
			return report.NewMarkdownWriter(w, report.WithMarkdownTierBounds(cfg.FastBelow(), cfg.SlowFrom()))
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// writeReportFile renders one report into the output directory.
func writeReportFile(dir, name string, results *model.ResultSet, build func(io.Writer) report.Writer) error {
	path := filepath.Join(dir, name)

	f, err := createReportFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := build(f).Write(results); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	fmt.Printf("Saved %s\n", path)
	return nil
}

// createReportFile creates path for writing, making parent directories as
// needed. Report files may carry proxy credentials, so they are created
// readable by the owner only.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// saveRun archives the run and its results. If db is nil, this function
// is a no-op.
func saveRun(ctx context.Context, db *database.RunDB, results *model.ResultSet, summary model.Summary, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// An interrupted run still archives what it measured
	ctx = context.WithoutCancel(ctx)

	runID, err := db.SaveRun(ctx, results, summary)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run archived", "run_id", runID)
	fmt.Printf("Archived as run #%d (diff runs with 'proxyscan compare')\n", runID)
	return nil
}
