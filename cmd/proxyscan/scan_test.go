package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/config"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/database"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/report"
)

// TestNewScanCmd tests the scan command creation.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "scan [input]" {
			t.Errorf("expected use 'scan [input]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("accepts at most one argument", func(t *testing.T) {
		t.Parallel()
		if cmd.Args == nil {
			t.Error("expected Args validator")
		}
	})

	t.Run("has collect flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("collect")
		if flag == nil {
			t.Fatal("expected collect flag")
		}
		if flag.Shorthand != "C" {
			t.Errorf("expected shorthand 'C', got %q", flag.Shorthand)
		}
	})

	t.Run("has workers flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("workers")
		if flag == nil {
			t.Fatal("expected workers flag")
		}
		if flag.Shorthand != "w" {
			t.Errorf("expected shorthand 'w', got %q", flag.Shorthand)
		}
		if flag.DefValue != "50" {
			t.Errorf("expected default '50', got %q", flag.DefValue)
		}
	})

	t.Run("has timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("timeout")
		if flag == nil {
			t.Fatal("expected timeout flag")
		}
		if flag.Shorthand != "t" {
			t.Errorf("expected shorthand 't', got %q", flag.Shorthand)
		}
	})

	t.Run("has echo-url flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("echo-url")
		if flag == nil {
			t.Fatal("expected echo-url flag")
		}
		if flag.Shorthand != "e" {
			t.Errorf("expected shorthand 'e', got %q", flag.Shorthand)
		}
	})

	t.Run("has prefilter flag defaulting off", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("prefilter")
		if flag == nil {
			t.Fatal("expected prefilter flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has run-deadline flag defaulting off", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("run-deadline")
		if flag == nil {
			t.Fatal("expected run-deadline flag")
		}
		if flag.DefValue != "0s" {
			t.Errorf("expected default '0s', got %q", flag.DefValue)
		}
	})

	t.Run("has tier bound flags", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("fast-below-ms") == nil {
			t.Error("expected fast-below-ms flag")
		}
		if cmd.Flags().Lookup("slow-from-ms") == nil {
			t.Error("expected slow-from-ms flag")
		}
	})

	t.Run("has geo flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("geo")
		if flag == nil {
			t.Fatal("expected geo flag")
		}
		if flag.Shorthand != "g" {
			t.Errorf("expected shorthand 'g', got %q", flag.Shorthand)
		}
	})

	t.Run("has geoip-db flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("geoip-db") == nil {
			t.Error("expected geoip-db flag")
		}
	})

	t.Run("has output-dir flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output-dir")
		if flag == nil {
			t.Fatal("expected output-dir flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})

	t.Run("has plain flag defaulting on", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("plain")
		if flag == nil {
			t.Fatal("expected plain flag")
		}
		if flag.DefValue != "true" {
			t.Errorf("expected default 'true', got %q", flag.DefValue)
		}
	})

	t.Run("has telegram flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("telegram") == nil {
			t.Error("expected telegram flag")
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has markdown flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("markdown")
		if flag == nil {
			t.Fatal("expected markdown flag")
		}
		if flag.Shorthand != "m" {
			t.Errorf("expected shorthand 'm', got %q", flag.Shorthand)
		}
	})

	t.Run("has archive flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("archive")
		if flag == nil {
			t.Fatal("expected archive flag")
		}
		if flag.Shorthand != "a" {
			t.Errorf("expected shorthand 'a', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("does not have db-dir flag (set db_dir in the config file)", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("db-dir")
		if flag != nil {
			t.Error("db-dir flag should not exist on scan (set db_dir in the config file)")
		}
	})
}

// TestSetupLogger tests the logger setup.
func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("creates logger for verbose mode", func(t *testing.T) {
		t.Parallel()
		logger := setupLogger(true)
		if logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("creates logger for non-verbose mode", func(t *testing.T) {
		t.Parallel()
		logger := setupLogger(false)
		if logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewScanCmd()
		result := getVerboseFlag(cmd)
		if result {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		// Set verbose flag to true
		_ = root.PersistentFlags().Set("verbose", "true")

		// Get scan subcommand
		scanCmd, _, err := root.Find([]string{"scan"})
		if err != nil {
			t.Fatalf("failed to find scan command: %v", err)
		}

		result := getVerboseFlag(scanCmd)
		if !result {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cmd := NewScanCmd()
		cfg, err := buildConfig(cmd, []string{"proxies.txt"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if cfg.Input != "proxies.txt" {
			t.Errorf("expected input 'proxies.txt', got %q", cfg.Input)
		}
		if cfg.Workers != config.DefaultWorkers {
			t.Errorf("expected workers %d, got %d", config.DefaultWorkers, cfg.Workers)
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("expected timeout %s, got %s", config.DefaultTimeout, cfg.Timeout)
		}
		if cfg.EchoURL != config.DefaultEchoURL {
			t.Errorf("expected echo URL %q, got %q", config.DefaultEchoURL, cfg.EchoURL)
		}
		if !cfg.PlainReport {
			t.Error("expected PlainReport to default to true")
		}
		if cfg.Collect {
			t.Error("expected Collect to default to false")
		}
	})

	t.Run("builds config with custom workers", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("workers", "200")
		cfg, err := buildConfig(cmd, []string{"proxies.txt"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Workers != 200 {
			t.Errorf("expected workers 200, got %d", cfg.Workers)
		}
	})

	t.Run("builds config with custom timeout", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("timeout", "5s")
		cfg, err := buildConfig(cmd, []string{"proxies.txt"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %s", cfg.Timeout)
		}
	})

	t.Run("builds config with prefilter", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("prefilter", "true")
		cfg, err := buildConfig(cmd, []string{"proxies.txt"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.PreFilter {
			t.Error("expected PreFilter to be true")
		}
	})

	t.Run("builds config with collect mode", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("collect", "true")
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.Collect {
			t.Error("expected Collect to be true")
		}
		if cfg.Input != "" {
			t.Errorf("expected empty input, got %q", cfg.Input)
		}
	})

	t.Run("geoip-db implies geo", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("geoip-db", "GeoLite2-Country.mmdb")
		cfg, err := buildConfig(cmd, []string{"proxies.txt"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.GeoIPDB != "GeoLite2-Country.mmdb" {
			t.Errorf("expected GeoIPDB 'GeoLite2-Country.mmdb', got %q", cfg.GeoIPDB)
		}
		if !cfg.Geo {
			t.Error("expected Geo to be implied by geoip-db")
		}
	})

	t.Run("builds config with report flags", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("json", "true")
		_ = cmd.Flags().Set("markdown", "true")
		_ = cmd.Flags().Set("telegram", "true")
		cfg, err := buildConfig(cmd, []string{"proxies.txt"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
		if !cfg.MarkdownReport {
			t.Error("expected MarkdownReport to be true")
		}
		if !cfg.TelegramReport {
			t.Error("expected TelegramReport to be true")
		}
		if !cfg.PlainReport {
			t.Error("expected PlainReport to stay true")
		}
	})

	t.Run("disables plain report", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("plain", "false")
		cfg, err := buildConfig(cmd, []string{"proxies.txt"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.PlainReport {
			t.Error("expected PlainReport to be false")
		}
	})

	t.Run("builds config with valid config file", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "proxyscan.yaml")

		// Create a valid config file
		content := []byte(`
workers: 100
timeout: 30s
prefilter: true
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, []string{"proxies.txt"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Workers != 100 {
			t.Errorf("expected workers 100 from config file, got %d", cfg.Workers)
		}
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected timeout 30s from config file, got %s", cfg.Timeout)
		}
		if !cfg.PreFilter {
			t.Error("expected PreFilter true from config file")
		}
		if !cfg.PlainReport {
			t.Error("expected PlainReport to keep its default")
		}
		if cfg.ConfigFilePath != configPath {
			t.Errorf("expected ConfigFilePath %q, got %q", configPath, cfg.ConfigFilePath)
		}
	})

	t.Run("flags override config file", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "proxyscan.yaml")

		content := []byte(`
workers: 100
timeout: 30s
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("config", configPath)
		_ = cmd.Flags().Set("workers", "10")
		cfg, err := buildConfig(cmd, []string{"proxies.txt"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Workers != 10 {
			t.Errorf("expected flag to override config file workers, got %d", cfg.Workers)
		}
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected timeout 30s from config file, got %s", cfg.Timeout)
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := buildConfig(cmd, []string{"proxies.txt"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
		if !strings.Contains(err.Error(), "configuration file not found") {
			t.Errorf("expected 'configuration file not found' error, got %v", err)
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")

		// Create an invalid config file
		content := []byte(`{invalid yaml`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewScanCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildConfig(cmd, []string{"proxies.txt"})
		if err == nil {
			t.Fatal("expected error for invalid config file")
		}
	})
}

// TestOpenInput tests candidate source opening.
func TestOpenInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("reads from file", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "proxies.txt")
		if err := os.WriteFile(path, []byte("192.0.2.1:1080\n"), 0o600); err != nil {
			t.Fatalf("failed to write input: %v", err)
		}

		r, err := openInput(ctx, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("failed to read input: %v", err)
		}
		if !strings.Contains(string(data), "192.0.2.1:1080") {
			t.Errorf("expected file contents, got %q", string(data))
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		t.Parallel()

		_, err := openInput(ctx, filepath.Join(t.TempDir(), "missing.txt"))
		if err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("reads from stdin with dash", func(t *testing.T) {
		t.Parallel()

		r, err := openInput(ctx, "-")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r == nil {
			t.Fatal("expected non-nil reader for stdin")
		}
		_ = r.Close()
	})

	t.Run("fetches from URL", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("192.0.2.2:1080\n"))
		}))
		defer srv.Close()

		r, err := openInput(ctx, srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("failed to read response: %v", err)
		}
		if !strings.Contains(string(data), "192.0.2.2:1080") {
			t.Errorf("expected fetched list, got %q", string(data))
		}
	})

	t.Run("returns error for non-200 URL", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := openInput(ctx, srv.URL)
		if err == nil {
			t.Error("expected error for non-200 response")
		}
		if !strings.Contains(err.Error(), "status") {
			t.Errorf("expected status error, got %v", err)
		}
	})
}

// TestLoadCandidates tests candidate list loading.
func TestLoadCandidates(t *testing.T) {
	t.Parallel()

	t.Run("parses candidates from file", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "proxies.txt")
		content := "192.0.2.1:1080\n192.0.2.2:1080:user:pass\nnot-a-proxy\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write input: %v", err)
		}

		cfg := config.NewConfig()
		cfg.Input = path
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

		candidates, err := loadCandidates(context.Background(), cfg, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(candidates) != 2 {
			t.Errorf("expected 2 candidates, got %d", len(candidates))
		}
	})

	t.Run("returns error for missing input", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Input = filepath.Join(t.TempDir(), "missing.txt")
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

		_, err := loadCandidates(context.Background(), cfg, logger)
		if err == nil {
			t.Error("expected error for missing input file")
		}
	})
}

// TestProgressPrinter tests the progress line rendering.
func TestProgressPrinter(t *testing.T) {
	t.Run("prints at interval", func(t *testing.T) {
		printer := progressPrinter()

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		printer(model.Progress{Tested: 100, Total: 200, Working: 5, ETA: 10 * time.Second})

		w.Close()
		os.Stdout = oldStdout

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		output := buf.String()

		if !strings.Contains(output, "[100/200]") {
			t.Errorf("expected progress counters, got %q", output)
		}
		if !strings.Contains(output, "working: 5") {
			t.Errorf("expected working count, got %q", output)
		}
		if !strings.Contains(output, "eta:") {
			t.Errorf("expected eta, got %q", output)
		}
	})

	t.Run("suppresses off-interval snapshots", func(t *testing.T) {
		printer := progressPrinter()

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		printer(model.Progress{Tested: 101, Total: 200, Working: 5})

		w.Close()
		os.Stdout = oldStdout

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if buf.Len() != 0 {
			t.Errorf("expected no output off interval, got %q", buf.String())
		}
	})

	t.Run("prints final snapshot even off interval", func(t *testing.T) {
		printer := progressPrinter()

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		printer(model.Progress{Tested: 157, Total: 157, Working: 12})

		w.Close()
		os.Stdout = oldStdout

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		output := buf.String()

		if !strings.Contains(output, "[157/157]") {
			t.Errorf("expected final counters, got %q", output)
		}
	})
}

// TestBuildPipeline tests the pipeline assembly.
func TestBuildPipeline(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("assembles pipeline with defaults", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		p := buildPipeline(cfg, nil, logger)
		if p == nil {
			t.Error("expected non-nil pipeline")
		}
	})

	t.Run("assembles pipeline with all probe options", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.PreFilter = true
		cfg.RunDeadline = time.Minute
		p := buildPipeline(cfg, nil, logger)
		if p == nil {
			t.Error("expected non-nil pipeline")
		}
	})
}

// TestCreateReportFile tests report file creation.
func TestCreateReportFile(t *testing.T) {
	t.Run("creates file with owner-only permissions", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("skipping permission test on Windows")
		}

		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "report.txt")

		f, err := createReportFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := f.WriteString("data\n"); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("failed to close: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("failed to stat file: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "subdir", "nested", "report.txt")

		f, err := createReportFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = f.Close()

		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Error("expected file to be created in nested directory")
		}
	})
}

// TestWriteReportFile tests rendering one report into the output directory.
func TestWriteReportFile(t *testing.T) {
	tmpDir := t.TempDir()

	results := model.NewResultSet()
	res := model.NewProbeResult(model.MustParseEndpoint("192.0.2.10:1080"))
	res.Working = true
	res.SetLatency(150 * time.Millisecond)
	results.Add(res)

	err := writeReportFile(tmpDir, "out.txt", results, func(w io.Writer) report.Writer {
		return report.NewPlainWriter(w)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, "out.txt"))
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !strings.Contains(string(content), "192.0.2.10:1080") {
		t.Errorf("expected report to contain the working proxy, got %q", string(content))
	}
}

// TestOutputReports tests the report fan-out.
func TestOutputReports(t *testing.T) {
	t.Run("writes selected report files", func(t *testing.T) {
		tmpDir := t.TempDir()

		cfg := config.NewConfig()
		cfg.OutputDir = tmpDir
		cfg.JSONReport = true

		results := model.NewResultSet()
		res := model.NewProbeResult(model.MustParseEndpoint("192.0.2.20:1080"))
		res.Working = true
		res.SetLatency(200 * time.Millisecond)
		results.Add(res)

		// Console summary goes to stdout; swallow it
		oldStdout := os.Stdout
		_, w, _ := os.Pipe()
		os.Stdout = w

		err := outputReports(cfg, results)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(filepath.Join(tmpDir, plainReportFile)); os.IsNotExist(err) {
			t.Error("expected plain report to be written")
		}
		if _, err := os.Stat(filepath.Join(tmpDir, jsonReportFile)); os.IsNotExist(err) {
			t.Error("expected JSON report to be written")
		}
		if _, err := os.Stat(filepath.Join(tmpDir, telegramReportFile)); err == nil {
			t.Error("expected no telegram report without the flag")
		}
		if _, err := os.Stat(filepath.Join(tmpDir, markdownReportFile)); err == nil {
			t.Error("expected no markdown report without the flag")
		}
	})

	t.Run("writes nothing with all file reports disabled", func(t *testing.T) {
		tmpDir := t.TempDir()

		cfg := config.NewConfig()
		cfg.OutputDir = tmpDir
		cfg.PlainReport = false

		results := model.NewResultSet()

		oldStdout := os.Stdout
		_, w, _ := os.Pipe()
		os.Stdout = w

		err := outputReports(cfg, results)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		entries, err := os.ReadDir(tmpDir)
		if err != nil {
			t.Fatalf("failed to read output dir: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty output dir, found %d entries", len(entries))
		}
	})
}

// TestSaveRun tests the saveRun function.
func TestSaveRun(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx := context.Background()

	t.Run("returns nil when db is nil", func(t *testing.T) {
		results := model.NewResultSet()
		err := saveRun(ctx, nil, results, model.Summary{}, logger)
		if err != nil {
			t.Errorf("expected nil error when db is nil, got %v", err)
		}
	})

	t.Run("saves run to database", func(t *testing.T) {
		tmpDir := t.TempDir()
		db, err := database.Open(tmpDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		results := model.NewResultSet()
		results.ReferenceIP = "198.51.100.1"

		working := model.NewProbeResult(model.MustParseEndpoint("192.0.2.30:1080"))
		working.Working = true
		working.SetLatency(120 * time.Millisecond)
		working.SetAnonymity(model.AnonymityAnonymous)
		results.Add(working)

		failed := model.NewProbeResult(model.MustParseEndpoint("192.0.2.31:1080"))
		failed.SetFailure(model.FailureTimeout, "deadline exceeded")
		results.Add(failed)

		summary := results.Summarize(time.Second, 3*time.Second)

		// Swallow the archive narration
		oldStdout := os.Stdout
		_, w, _ := os.Pipe()
		os.Stdout = w

		err = saveRun(ctx, db, results, summary, logger)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("saveRun() error = %v", err)
		}

		// Verify the run was archived
		history, err := db.RunHistory(ctx, 1)
		if err != nil {
			t.Fatalf("failed to read run history: %v", err)
		}
		if len(history) != 1 {
			t.Fatalf("expected 1 archived run, got %d", len(history))
		}
		if history[0].Working != 1 {
			t.Errorf("expected 1 working proxy in archive, got %d", history[0].Working)
		}
		if history[0].Total != 2 {
			t.Errorf("expected 2 tested candidates in archive, got %d", history[0].Total)
		}
	})

	t.Run("archives despite cancelled context", func(t *testing.T) {
		tmpDir := t.TempDir()
		db, err := database.Open(tmpDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		results := model.NewResultSet()
		res := model.NewProbeResult(model.MustParseEndpoint("192.0.2.32:1080"))
		res.Working = true
		res.SetLatency(90 * time.Millisecond)
		results.Add(res)

		oldStdout := os.Stdout
		_, w, _ := os.Pipe()
		os.Stdout = w

		err = saveRun(cancelled, db, results, results.Summarize(time.Second, 3*time.Second), logger)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Errorf("expected interrupted run to archive, got %v", err)
		}
	})
}

// TestRunScanEmptyInput tests that an empty candidate list ends the run
// without error.
func TestRunScanEmptyInput(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "empty.txt")
	if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	cfg := config.NewConfig()
	cfg.Input = path
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := runScan(context.Background(), cfg, logger)

	w.Close()
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	r.Close()

	if !strings.Contains(buf.String(), "Nothing to test") {
		t.Errorf("expected empty-list notice, got %q", buf.String())
	}
}

// TestRunScanCmdValidation tests configuration validation through the
// command surface.
func TestRunScanCmdValidation(t *testing.T) {
	t.Run("rejects missing input", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"scan"})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for missing input")
		}
		if !strings.Contains(err.Error(), "configuration error") {
			t.Errorf("expected configuration error, got: %v", err)
		}
		if !strings.Contains(err.Error(), "no input") {
			t.Errorf("expected 'no input' error, got: %v", err)
		}
	})

	t.Run("rejects conflicting inputs", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"scan", "--collect", "proxies.txt"})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for conflicting inputs")
		}
		if !strings.Contains(err.Error(), "conflicting") {
			t.Errorf("expected 'conflicting' error, got: %v", err)
		}
	})

	t.Run("rejects invalid workers", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"scan", "-w", "0", "proxies.txt"})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for invalid workers")
		}
		if !strings.Contains(err.Error(), "invalid workers") {
			t.Errorf("expected 'invalid workers' error, got: %v", err)
		}
	})

	t.Run("rejects inverted tier bounds", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"scan", "--fast-below-ms", "5000", "--slow-from-ms", "1000", "proxies.txt"})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for inverted tier bounds")
		}
		if !strings.Contains(err.Error(), "tier bounds") {
			t.Errorf("expected 'tier bounds' error, got: %v", err)
		}
	})

	t.Run("rejects more than one input argument", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"scan", "a.txt", "b.txt"})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for extra arguments")
		}
	})
}
