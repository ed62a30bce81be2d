package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/collect"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/config"
	"github.com/spf13/cobra"
)

// Files written by the collect command.
const (
	rawListFile      = "socks5_raw.txt"
	sourceStatusFile = "socks5_sources_status.json"
)

// NewCollectCmd creates the collect command.
func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect SOCKS5 candidates from public sources without validating them",
		Long: `Collect pulls candidate lists from the built-in catalog of public proxy
sources, dedupes them, and writes the raw merged list plus a per-source
status report. No probing happens; feed the list to 'proxyscan scan'
when you want it validated.

Examples:
  # Collect into the current directory
  proxyscan collect

  # Collect into a specific directory with extra sources from a config file
  proxyscan collect -o lists/ -c .proxyscan.yaml`,
		Args: cobra.NoArgs,
		RunE: runCollectCmd,
	}

	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory the raw list and source status are written to")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .proxyscan.yaml in current or home directory)")

	return cmd
}

// runCollectCmd executes the collect command.
func runCollectCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCollectConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCollect(ctx, cfg, logger)
}

// buildCollectConfig creates a Config for the collect command. The config
// file matters here mostly for extra_sources.
func buildCollectConfig(cmd *cobra.Command) (*config.Config, error) {
	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

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

	if cmd.Flags().Changed("output-dir") {
		if cfg.OutputDir, err = cmd.Flags().GetString("output-dir"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// runCollect pulls the candidate catalog and writes the raw list and the
// per-source status report.
func runCollect(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	collector := collect.NewCollector(cfg.Sources(), collect.WithLogger(logger))

	fmt.Printf("Collecting candidates from %d public sources...\n", collector.SourceCount())

	collection, err := collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	fmt.Printf("Collected %d unique candidates (%d sources ok, %d failed)\n",
		len(collection.Endpoints), len(collection.Successful()), len(collection.Failed()))

	if err := writeRawList(cfg.OutputDir, collection); err != nil {
		return err
	}
	if err := writeSourceStatus(cfg.OutputDir, collection); err != nil {
		return err
	}

	logger.Info("collection written",
		"candidates", len(collection.Endpoints),
		"output_dir", cfg.OutputDir,
	)
	return nil
}

// writeRawList writes the merged candidate list, one endpoint per line.
func writeRawList(dir string, collection *collect.Collection) error {
	path := filepath.Join(dir, rawListFile)

	f, err := createReportFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, ep := range collection.Endpoints {
		if _, err := fmt.Fprintln(w, ep.String()); err != nil {
			return fmt.Errorf("failed to write %s: %w", rawListFile, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", rawListFile, err)
	}

	fmt.Printf("Saved %s\n", path)
	return nil
}

// writeSourceStatus writes which sources answered and how many candidates
// each contributed.
func writeSourceStatus(dir string, collection *collect.Collection) error {
	path := filepath.Join(dir, sourceStatusFile)

	f, err := createReportFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(collection.Status()); err != nil {
		return fmt.Errorf("failed to write %s: %w", sourceStatusFile, err)
	}

	fmt.Printf("Saved %s\n", path)
	return nil
}
