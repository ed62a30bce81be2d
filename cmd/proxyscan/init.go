package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/proxyscan.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = ".proxyscan.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	var (
		outputPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new proxyscan configuration file",
		Long: `Initialize creates a new .proxyscan.yaml configuration file in the current directory.

The generated file includes:
- Default settings for workers, timeouts, and speed tiers
- Commented examples for report formats and geo lookups
- A template for adding your own candidate sources

Examples:
  # Create .proxyscan.yaml in current directory
  proxyscan init

  # Create config file at a specific path
  proxyscan init -o myconfig.yaml

  # Force overwrite existing file
  proxyscan init -f`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := writeConfigTemplate(outputPath, force); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
			fmt.Fprintln(out, "\nEdit this file to configure settings such as:")
			fmt.Fprintln(out, "  - Worker count and per-probe timeout")
			fmt.Fprintln(out, "  - Report formats and output directory")
			fmt.Fprintln(out, "  - Extra candidate sources for collection")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolVarP(&force, "force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// writeConfigTemplate materializes the embedded configuration template at
// outputPath, creating parent directories as needed. Without force an
// existing file is left untouched and an error returned.
func writeConfigTemplate(outputPath string, force bool) error {
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/proxyscan.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}
