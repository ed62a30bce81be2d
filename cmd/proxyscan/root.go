// Package main provides the entry point for the proxyscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for proxyscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxyscan",
		Short: "Concurrent SOCKS5 proxy validator",
		Long: `proxyscan validates SOCKS5 proxy candidates by tunneling a real HTTP
request through each one. Candidates that complete the request are ranked
by latency and classified as anonymous or transparent depending on whether
the destination saw your address.

Candidates come from a file, a URL, stdin, or the built-in catalog of
public proxy lists (--collect).`,
		Version:       resolveBuildVersion().version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(
		NewScanCmd(),
		NewCollectCmd(),
		NewCompareCmd(),
		NewInitCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command and maps any failure to exit code 1.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
