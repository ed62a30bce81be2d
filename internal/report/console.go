package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// ConsoleWriter renders the human-readable run summary.
//
// Design decision: Output uses plain text with ASCII formatting rather
// than ANSI colors because:
//  1. Works in all terminals and when piped to files
//  2. Easy to parse with grep and other tools
//  3. No external dependencies for color handling
type ConsoleWriter struct {
	baseWriter

	// fastBelow and slowFrom are the speed tier bounds echoed in the
	// breakdown section labels.
	fastBelow time.Duration
	slowFrom  time.Duration
}

// ConsoleWriterOption configures a ConsoleWriter.
type ConsoleWriterOption func(*ConsoleWriter)

// WithConsoleTierBounds overrides the default speed tier bounds
// (1s and 3s). Invalid bounds are ignored.
func WithConsoleTierBounds(fastBelow, slowFrom time.Duration) ConsoleWriterOption {
	return func(w *ConsoleWriter) {
		if fastBelow > 0 && slowFrom > fastBelow {
			w.fastBelow = fastBelow
			w.slowFrom = slowFrom
		}
	}
}

// NewConsoleWriter creates a ConsoleWriter that outputs to the given writer.
func NewConsoleWriter(output io.Writer, opts ...ConsoleWriterOption) *ConsoleWriter {
	w := &ConsoleWriter{
		baseWriter: newBaseWriter(output),
		fastBelow:  time.Second,
		slowFrom:   3 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the summary to the output destination.
func (w *ConsoleWriter) Write(results *model.ResultSet) (int, error) {
	var sb strings.Builder

	summary := results.Summarize(w.fastBelow, w.slowFrom)

	w.writeHeader(&sb)

	if summary.Working == 0 {
		sb.WriteString("  No working proxies found.\n")
		w.writeFooter(&sb)
		return w.output.Write([]byte(sb.String()))
	}

	w.writeTotals(&sb, results, summary)
	w.writeLatencies(&sb, summary)
	w.writeBreakdown(&sb, summary)
	w.writeCountries(&sb, summary)
	w.writeTopFastest(&sb, results)
	w.writeSampleLinks(&sb, results)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *ConsoleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("  SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")
}

func (w *ConsoleWriter) writeTotals(sb *strings.Builder, results *model.ResultSet, summary model.Summary) {
	if results.ReferenceIP != "" {
		fmt.Fprintf(sb, "  Your IP:           %s\n", results.ReferenceIP)
	}
	fmt.Fprintf(sb, "  Total tested:      %d\n", summary.Total)
	fmt.Fprintf(sb, "  Total working:     %d\n", summary.Working)
	fmt.Fprintf(sb, "  Anonymous:         %d\n", summary.Anonymous)
}

func (w *ConsoleWriter) writeLatencies(sb *strings.Builder, summary model.Summary) {
	if summary.MaxLatencyMS == 0 {
		return
	}
	fmt.Fprintf(sb, "  Average latency:   %dms\n", summary.AvgLatencyMS)
	fmt.Fprintf(sb, "  Fastest:           %dms\n", summary.MinLatencyMS)
	fmt.Fprintf(sb, "  Slowest:           %dms\n", summary.MaxLatencyMS)
}

func (w *ConsoleWriter) writeBreakdown(sb *strings.Builder, summary model.Summary) {
	fast := w.fastBelow.String()
	slow := w.slowFrom.String()

	sb.WriteString("\n  Speed breakdown:\n")
	fmt.Fprintf(sb, "    Fast (<%s):     %d\n", fast, summary.FastCount)
	fmt.Fprintf(sb, "    Medium (%s-%s): %d\n", fast, slow, summary.MediumCount)
	fmt.Fprintf(sb, "    Slow (>=%s):    %d\n", slow, summary.SlowCount)
}

func (w *ConsoleWriter) writeCountries(sb *strings.Builder, summary model.Summary) {
	if len(summary.ByCountry) == 0 {
		return
	}
	sb.WriteString("\n  By country:\n")
	for _, cc := range topCountries(summary.ByCountry, 10) {
		fmt.Fprintf(sb, "    %s: %d\n", cc.code, cc.count)
	}
}

func (w *ConsoleWriter) writeTopFastest(sb *strings.Builder, results *model.ResultSet) {
	top := results.TopFastest(5)
	if len(top) == 0 {
		return
	}

	sb.WriteString("\n  Top 5 fastest:\n")
	for i, r := range top {
		fmt.Fprintf(sb, "    %d. [%s] %s:%d - %dms", i+1, anonymityMarker(r.Anonymity), r.Host, r.Port, r.LatencyMS)
		if r.Country != "" {
			fmt.Fprintf(sb, " (%s)", r.Country)
		}
		sb.WriteString("\n")
	}
}

func (w *ConsoleWriter) writeSampleLinks(sb *strings.Builder, results *model.ResultSet) {
	top := results.TopFastest(3)
	if len(top) == 0 {
		return
	}

	sb.WriteString("\n  Sample Telegram links:\n")
	for _, r := range top {
		fmt.Fprintf(sb, "    %s\n", TelegramURL(r.Endpoint))
	}
}

func (w *ConsoleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
}
