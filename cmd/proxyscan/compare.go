package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/config"
	"github.com/MixCoatl-44/Proxy-Scanner/internal/database"
	"github.com/spf13/cobra"
)

// Constants for latency direction and summary messages.
const (
	latencyDirectionWorsened  = "worsened"
	latencyDirectionImproved  = "improved"
	latencyDirectionUnchanged = "unchanged"
	noWorkingMessage          = "No working proxies"
)

// NewCompareCmd creates the compare command.
// This command compares validation runs archived in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare archived validation runs",
		Long: `Compare displays differences between two archived validation runs.

This command retrieves archived runs from the database and shows:
- Proxies that started working since the previous run
- Proxies that stopped working since the previous run
- The latency trend across proxies working in both runs

The comparison requires at least two archived runs. Use
'proxyscan scan --archive' to archive runs.

Examples:
  # Compare the latest two archived runs
  proxyscan compare

  # List all archived runs
  proxyscan compare --list

  # Compare the latest run with a specific earlier run
  proxyscan compare --with-run-id 5

  # Output comparison in JSON format
  proxyscan compare --json`,
		Args: cobra.NoArgs,
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List archived runs instead of comparing")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare the latest run with a specific run by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	// Archive location
	cmd.Flags().String("db-dir", "",
		"Archive database directory (default: the user data directory)")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// The archive is an output of past scans; never create it here, a
	// missing database means there is nothing to compare
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open archive database (run 'proxyscan scan --archive' first): %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, db)
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Get comparison target flag
	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}

	// Perform comparison
	return runComparison(ctx, db, withRunID, jsonOutput, markdownOutput)
}

// listRunHistory lists every archived run.
func listRunHistory(ctx context.Context, db *database.RunDB) error {
	runs, err := db.RunHistory(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No archived runs found in the database.")
		fmt.Println("\nUse 'proxyscan scan --archive' to archive a validation run.")
		return nil
	}

	fmt.Printf("Archived runs (%d):\n\n", len(runs))
	fmt.Printf("  %-6s  %-20s  %s\n", "ID", "Date", "Run Summary")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, run := range runs {
		fmt.Printf("  %-6d  %-20s  %s\n",
			run.ID,
			run.FinishedAt.Format("2006-01-02 15:04:05"),
			formatRunSummary(run),
		)
	}

	fmt.Println("\nUse 'proxyscan compare' to compare the latest two runs.")
	fmt.Println("Use 'proxyscan compare --with-run-id <id>' to compare with a specific run.")

	return nil
}

// formatRunSummary formats a run's headline counts into a human-readable string.
func formatRunSummary(run database.RunRecord) string {
	if run.Working == 0 {
		return fmt.Sprintf("%s (tested %d)", noWorkingMessage, run.Total)
	}

	parts := []string{
		fmt.Sprintf("W:%d/%d", run.Working, run.Total),
	}
	if run.Anonymous > 0 {
		parts = append(parts, fmt.Sprintf("A:%d", run.Anonymous))
	}
	if run.AvgLatencyMS > 0 {
		parts = append(parts, fmt.Sprintf("avg %dms", run.AvgLatencyMS))
	}
	return strings.Join(parts, " ")
}

// runComparison performs the actual comparison between archived runs.
func runComparison(ctx context.Context, db *database.RunDB, withRunID int64, jsonOutput, markdownOutput bool) error {
	// Get the run history
	runs, err := db.RunHistory(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		return fmt.Errorf("no archived runs found (use 'proxyscan scan --archive' to archive runs)")
	}

	if len(runs) < 2 && withRunID == 0 {
		return fmt.Errorf("at least 2 archived runs are required for comparison (found %d)", len(runs))
	}

	// Determine which runs to compare
	var currentRun, previousRun database.RunRecord

	// Latest run is always the current one
	currentRun = runs[0]

	if withRunID > 0 {
		// Find the run with the specified ID
		rec, err := db.RunByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if rec == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		if rec.ID == currentRun.ID {
			return fmt.Errorf("run %d is the latest run; pick an earlier run to compare against", withRunID)
		}
		previousRun = *rec
	} else {
		// Default: compare with the previous run
		previousRun = runs[1]
	}

	previousResults, err := db.ResultsByRun(ctx, previousRun.ID)
	if err != nil {
		return fmt.Errorf("failed to get results for run %d: %w", previousRun.ID, err)
	}
	currentResults, err := db.ResultsByRun(ctx, currentRun.ID)
	if err != nil {
		return fmt.Errorf("failed to get results for run %d: %w", currentRun.ID, err)
	}

	// Generate comparison result
	comparison := compareRuns(previousRun, previousResults, currentRun, currentResults)

	// Output the result
	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two validation runs.
type ComparisonResult struct {
	// PreviousRun contains metadata about the earlier run.
	PreviousRun RunMetadata `json:"previous_run"`

	// CurrentRun contains metadata about the later run.
	CurrentRun RunMetadata `json:"current_run"`

	// NewlyWorking contains proxies working now that were not working before.
	NewlyWorking []ProxyChange `json:"newly_working,omitempty"`

	// NewlyDead contains proxies that were working before but not now.
	NewlyDead []ProxyChange `json:"newly_dead,omitempty"`

	// StillWorking is the number of proxies working in both runs.
	StillWorking int `json:"still_working"`

	// LatencyChange describes the latency trend across proxies working in
	// both runs.
	LatencyChange LatencyChange `json:"latency_change"`
}

// RunMetadata contains metadata about a run for comparison display.
type RunMetadata struct {
	// ID is the run's database ID.
	ID int64 `json:"id"`

	// FinishedAt is when the run was archived.
	FinishedAt time.Time `json:"finished_at"`

	// Total is the number of candidates tested.
	Total int `json:"total"`

	// Working is the number of working proxies found.
	Working int `json:"working"`

	// Anonymous is the number of working proxies that hide the caller's address.
	Anonymous int `json:"anonymous"`

	// AvgLatencyMS is the mean latency across working proxies.
	AvgLatencyMS int64 `json:"avg_latency_ms"`
}

// ProxyChange describes one proxy whose state changed between runs.
type ProxyChange struct {
	// Proxy is the credential-free host:port of the proxy.
	Proxy string `json:"proxy"`

	// LatencyMS is the latency measured in the run where the proxy worked.
	LatencyMS int64 `json:"latency_ms,omitempty"`

	// Country is the exit country, when the run recorded one.
	Country string `json:"country,omitempty"`
}

// LatencyChange describes the latency trend between two runs.
type LatencyChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// PreviousAvgMS and CurrentAvgMS are mean latencies over the proxies
	// working in both runs, so the trend is not skewed by churn.
	PreviousAvgMS int64 `json:"previous_avg_ms"`
	CurrentAvgMS  int64 `json:"current_avg_ms"`

	// DeltaMS is CurrentAvgMS minus PreviousAvgMS.
	DeltaMS int64 `json:"delta_ms"`
}

// compareRuns compares two runs and generates a comparison result.
func compareRuns(previous database.RunRecord, previousResults []database.ResultRecord, current database.RunRecord, currentResults []database.ResultRecord) *ComparisonResult {
	result := &ComparisonResult{
		PreviousRun: runMetadata(previous),
		CurrentRun:  runMetadata(current),
	}

	// Build working-proxy maps keyed by the full endpoint string, so the
	// same address with different credentials counts as different proxies
	previousWorking := make(map[string]database.ResultRecord)
	for _, rec := range previousResults {
		if rec.Working {
			previousWorking[rec.Endpoint] = rec
		}
	}

	currentWorking := make(map[string]database.ResultRecord)
	for _, rec := range currentResults {
		if rec.Working {
			currentWorking[rec.Endpoint] = rec
		}
	}

	// Walk the ordered result slices rather than the maps so the output
	// stays sorted by latency
	var prevPairedTotal, currPairedTotal, paired int64
	for _, rec := range currentResults {
		if !rec.Working {
			continue
		}
		prev, exists := previousWorking[rec.Endpoint]
		if !exists {
			result.NewlyWorking = append(result.NewlyWorking, proxyChange(rec))
			continue
		}
		result.StillWorking++
		paired++
		prevPairedTotal += prev.LatencyMS
		currPairedTotal += rec.LatencyMS
	}

	for _, rec := range previousResults {
		if !rec.Working {
			continue
		}
		if _, exists := currentWorking[rec.Endpoint]; !exists {
			result.NewlyDead = append(result.NewlyDead, proxyChange(rec))
		}
	}

	// Calculate the latency trend over the paired proxies
	result.LatencyChange = calculateLatencyChange(prevPairedTotal, currPairedTotal, paired)

	return result
}

// runMetadata extracts the comparison-facing fields of a run record.
func runMetadata(run database.RunRecord) RunMetadata {
	return RunMetadata{
		ID:           run.ID,
		FinishedAt:   run.FinishedAt,
		Total:        run.Total,
		Working:      run.Working,
		Anonymous:    run.Anonymous,
		AvgLatencyMS: run.AvgLatencyMS,
	}
}

// proxyChange builds the display entry for one changed proxy. Credentials
// stay out of comparison output.
func proxyChange(rec database.ResultRecord) ProxyChange {
	return ProxyChange{
		Proxy:     fmt.Sprintf("%s:%d", rec.Host, rec.Port),
		LatencyMS: rec.LatencyMS,
		Country:   rec.Country,
	}
}

// calculateLatencyChange computes the latency trend over proxies working
// in both runs.
func calculateLatencyChange(prevTotal, currTotal, paired int64) LatencyChange {
	if paired == 0 {
		return LatencyChange{Direction: latencyDirectionUnchanged}
	}

	change := LatencyChange{
		PreviousAvgMS: prevTotal / paired,
		CurrentAvgMS:  currTotal / paired,
	}
	change.DeltaMS = change.CurrentAvgMS - change.PreviousAvgMS

	if change.CurrentAvgMS < change.PreviousAvgMS {
		change.Direction = latencyDirectionImproved
	} else if change.CurrentAvgMS > change.PreviousAvgMS {
		change.Direction = latencyDirectionWorsened
	} else {
		change.Direction = latencyDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Run Comparison: #%d vs #%d\n\n", result.PreviousRun.ID, result.CurrentRun.ID)

	// Latency trend summary
	fmt.Println("## Summary")
	fmt.Printf("\n**Latency Trend:** %s\n\n", formatLatencyDirection(result.LatencyChange.Direction))

	// Run metadata table
	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousRun.FinishedAt.Format("2006-01-02 15:04"),
		result.CurrentRun.FinishedAt.Format("2006-01-02 15:04"))
	fmt.Printf("| Working | %d | %d | %s |\n",
		result.PreviousRun.Working,
		result.CurrentRun.Working,
		formatDelta(result.CurrentRun.Working-result.PreviousRun.Working))
	fmt.Printf("| Anonymous | %d | %d | %s |\n",
		result.PreviousRun.Anonymous,
		result.CurrentRun.Anonymous,
		formatDelta(result.CurrentRun.Anonymous-result.PreviousRun.Anonymous))
	fmt.Printf("| Avg (ms) | %d | %d | %s |\n",
		result.LatencyChange.PreviousAvgMS,
		result.LatencyChange.CurrentAvgMS,
		formatDeltaMS(result.LatencyChange.DeltaMS))
	fmt.Printf("| **Tested** | **%d** | **%d** | **%s** |\n",
		result.PreviousRun.Total,
		result.CurrentRun.Total,
		formatDelta(result.CurrentRun.Total-result.PreviousRun.Total))

	// Newly working proxies
	if len(result.NewlyWorking) > 0 {
		fmt.Printf("\n## Newly Working (%d)\n\n", len(result.NewlyWorking))
		for _, p := range result.NewlyWorking {
			fmt.Printf("- **%s** (%s)\n", p.Proxy, describeProxyChange(p))
		}
	}

	// Newly dead proxies
	if len(result.NewlyDead) > 0 {
		fmt.Printf("\n## Newly Dead (%d)\n\n", len(result.NewlyDead))
		for _, p := range result.NewlyDead {
			fmt.Printf("- ~~%s~~\n", p.Proxy)
		}
	}

	// Still-working count
	if result.StillWorking > 0 {
		fmt.Printf("\n---\n\n*%d proxies working in both runs*\n", result.StillWorking)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Run Comparison: #%d vs #%d\n", result.PreviousRun.ID, result.CurrentRun.ID)
	fmt.Println(strings.Repeat("=", 60))

	// Latency trend summary
	fmt.Printf("\nLatency Trend: %s\n", formatLatencyDirection(result.LatencyChange.Direction))

	// Run dates
	fmt.Printf("\nPrevious run: %s (#%d)\n", result.PreviousRun.FinishedAt.Format("2006-01-02 15:04:05"), result.PreviousRun.ID)
	fmt.Printf("Current run:  %s (#%d)\n", result.CurrentRun.FinishedAt.Format("2006-01-02 15:04:05"), result.CurrentRun.ID)

	// Summary table
	fmt.Println("\nRun Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Working",
		result.PreviousRun.Working, result.CurrentRun.Working,
		formatDelta(result.CurrentRun.Working-result.PreviousRun.Working))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Anonymous",
		result.PreviousRun.Anonymous, result.CurrentRun.Anonymous,
		formatDelta(result.CurrentRun.Anonymous-result.PreviousRun.Anonymous))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Avg (ms)",
		result.LatencyChange.PreviousAvgMS, result.LatencyChange.CurrentAvgMS,
		formatDeltaMS(result.LatencyChange.DeltaMS))
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Tested",
		result.PreviousRun.Total, result.CurrentRun.Total,
		formatDelta(result.CurrentRun.Total-result.PreviousRun.Total))

	// Newly working proxies
	if len(result.NewlyWorking) > 0 {
		fmt.Printf("\nNewly Working (%d):\n", len(result.NewlyWorking))
		for _, p := range result.NewlyWorking {
			fmt.Printf("  [+] %s (%s)\n", p.Proxy, describeProxyChange(p))
		}
	}

	// Newly dead proxies
	if len(result.NewlyDead) > 0 {
		fmt.Printf("\nNewly Dead (%d):\n", len(result.NewlyDead))
		for _, p := range result.NewlyDead {
			fmt.Printf("  [-] %s\n", p.Proxy)
		}
	}

	// Still-working count
	if result.StillWorking > 0 {
		fmt.Printf("\nStill working: %d proxies\n", result.StillWorking)
	}

	return nil
}

// describeProxyChange formats the latency and country of a changed proxy.
func describeProxyChange(p ProxyChange) string {
	if p.Country != "" {
		return fmt.Sprintf("%dms, %s", p.LatencyMS, p.Country)
	}
	return fmt.Sprintf("%dms", p.LatencyMS)
}

// formatLatencyDirection formats the latency trend direction for display.
func formatLatencyDirection(direction string) string {
	switch direction {
	case latencyDirectionImproved:
		return "IMPROVED (latency decreased)"
	case latencyDirectionWorsened:
		return "WORSENED (latency increased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}

// formatDeltaMS formats a latency delta with sign for display.
func formatDeltaMS(delta int64) string {
	if delta > 0 {
		return "+" + strconv.FormatInt(delta, 10)
	} else if delta < 0 {
		return strconv.FormatInt(delta, 10)
	}
	return "0"
}
