package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// MarkdownWriter outputs results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// fastBelow and slowFrom are the speed tier bounds shown in the
	// tier table.
	fastBelow time.Duration
	slowFrom  time.Duration
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownTierBounds overrides the default speed tier bounds
// (1s and 3s). Invalid bounds are ignored.
func WithMarkdownTierBounds(fastBelow, slowFrom time.Duration) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		if fastBelow > 0 && slowFrom > fastBelow {
			w.fastBelow = fastBelow
			w.slowFrom = slowFrom
		}
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		fastBelow:  time.Second,
		slowFrom:   3 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full run report in Markdown format.
func (w *MarkdownWriter) Write(results *model.ResultSet) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := results.Summarize(w.fastBelow, w.slowFrom)

	w.writeHeader(md, results, summary)
	w.writeAlert(md, summary)
	w.writeTiers(md, summary)
	w.writeTopFastest(md, results)
	w.writeCountries(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, results *model.ResultSet, summary model.Summary) {
	md.H1("SOCKS5 Proxy Report")
	md.PlainText("")

	referenceIP := results.ReferenceIP
	if referenceIP == "" {
		referenceIP = "unavailable"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", time.Now().Format("2006-01-02 15:04:05 MST")},
			{"Reference IP", "`" + referenceIP + "`"},
			{"Candidates Tested", strconv.Itoa(summary.Total)},
			{"Working", strconv.Itoa(summary.Working)},
			{"Anonymous", strconv.Itoa(summary.Anonymous)},
			{"Elapsed", summary.Elapsed.Round(time.Second).String()},
		},
	})
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary model.Summary) {
	switch {
	case summary.Working == 0:
		md.Cautionf(
			"None of the %d candidates passed validation. Public lists decay fast; collect a fresh list and scan again.",
			summary.Total,
		)
	case summary.Anonymous == 0:
		md.Warningf(
			"None of the %d working proxies is anonymous. Each one exposes your address to the destination.",
			summary.Working,
		)
	default:
		md.Tip(fmt.Sprintf("%d of %d working proxies hide your address.", summary.Anonymous, summary.Working))
	}
	md.PlainText("")
}

// writeTiers writes the speed tier summary section.
func (w *MarkdownWriter) writeTiers(md *markdown.Markdown, summary model.Summary) {
	md.H2("Speed Tiers")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Tier", "Latency", "Count"},
		Rows: [][]string{
			{tierLabel(model.TierFast), fmt.Sprintf("< %s", w.fastBelow), strconv.Itoa(summary.FastCount)},
			{tierLabel(model.TierMedium), fmt.Sprintf("%s to %s", w.fastBelow, w.slowFrom), strconv.Itoa(summary.MediumCount)},
			{tierLabel(model.TierSlow), fmt.Sprintf(">= %s", w.slowFrom), strconv.Itoa(summary.SlowCount)},
		},
	})
	md.PlainText("")

	if summary.Working > 0 {
		w.writePieChart(md, summary)
	}
}

// writePieChart writes a mermaid pie chart for the tier distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Speed Tier Distribution"),
		piechart.WithShowData(true),
	)

	if summary.FastCount > 0 {
		chart.LabelAndIntValue(tierLabel(model.TierFast), uint64(summary.FastCount))
	}
	if summary.MediumCount > 0 {
		chart.LabelAndIntValue(tierLabel(model.TierMedium), uint64(summary.MediumCount))
	}
	if summary.SlowCount > 0 {
		chart.LabelAndIntValue(tierLabel(model.TierSlow), uint64(summary.SlowCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeTopFastest writes the ranked proxy table.
func (w *MarkdownWriter) writeTopFastest(md *markdown.Markdown, results *model.ResultSet) {
	md.H2("Top 10 Fastest")
	md.PlainText("")

	top := results.TopFastest(10)
	if len(top) == 0 {
		md.PlainText("No working proxies to rank.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(top))
	for i, r := range top {
		latency := "-"
		if r.HasLatency() {
			latency = strconv.FormatInt(r.LatencyMS, 10) + "ms"
		}
		country := r.Country
		if country == "" {
			country = "-"
		}

		// Credentials never appear in shareable reports.
		rows[i] = []string{
			strconv.Itoa(i + 1),
			"`" + r.Endpoint.Addr() + "`",
			latency,
			anonymityLabel(r.Anonymity),
			country,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Proxy", "Latency", "Anonymity", "Country"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeCountries writes the per-country distribution table.
func (w *MarkdownWriter) writeCountries(md *markdown.Markdown, summary model.Summary) {
	if len(summary.ByCountry) == 0 {
		return
	}

	md.H2("Working Proxies by Country")
	md.PlainText("")

	counts := topCountries(summary.ByCountry, 0)
	rows := make([][]string, len(counts))
	for i, cc := range counts {
		rows[i] = []string{cc.code, strconv.Itoa(cc.count)}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Country", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [proxyscan](https://github.com/MixCoatl-44/Proxy-Scanner)*")
}
