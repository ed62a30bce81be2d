package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// shortCommitLen is how many characters of the VCS revision are shown.
const shortCommitLen = 7

// buildVersion holds the resolved version metadata for the running binary.
type buildVersion struct {
	version   string
	commit    string
	date      string
	goVersion string
}

// resolveBuildVersion collects version metadata.
// Each field prefers the ldflags value and falls back to debug.ReadBuildInfo,
// so binaries built with plain 'go install' still report something useful.
func resolveBuildVersion() buildVersion {
	v := buildVersion{
		version:   version,
		commit:    commit,
		date:      date,
		goVersion: "unknown",
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return v.withDefaults()
	}

	if v.version == "" {
		v.version = buildInfo.Main.Version
	}
	v.goVersion = buildInfo.GoVersion

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			if v.commit == "" {
				v.commit = setting.Value
				if len(v.commit) > shortCommitLen {
					v.commit = v.commit[:shortCommitLen]
				}
			}
		case "vcs.time":
			if v.date == "" {
				v.date = setting.Value
			}
		}
	}
	return v.withDefaults()
}

// withDefaults fills any field the build info could not provide.
func (v buildVersion) withDefaults() buildVersion {
	if v.version == "" {
		v.version = "(devel)"
	}
	if v.commit == "" {
		v.commit = "unknown"
	}
	if v.date == "" {
		v.date = "unknown"
	}
	return v
}

// String renders the multi-line output of the version command.
func (v buildVersion) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "proxyscan version %s\n", v.version)
	fmt.Fprintf(&sb, "  commit: %s\n", v.commit)
	fmt.Fprintf(&sb, "  built:  %s\n", v.date)
	fmt.Fprintf(&sb, "  go:     %s\n", v.goVersion)
	return sb.String()
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of proxyscan.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), resolveBuildVersion())
		},
	}
}
