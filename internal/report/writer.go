package report

import (
	"io"
	"sort"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer defines the interface for report output.
// Implementations render the same validation results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write renders the results to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(results *model.ResultSet) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - each writer renders its own format, not a copy
// of the same bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the results through all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(results *model.ResultSet) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(results)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// anonymityLabel returns the display form of an anonymity class,
// such as "Anonymous" for model.AnonymityAnonymous.
func anonymityLabel(a model.Anonymity) string {
	return cases.Title(language.English).String(a.String())
}

// tierLabel returns the display form of a speed tier.
func tierLabel(t model.Tier) string {
	return cases.Title(language.English).String(t.String())
}

// anonymityMarker returns the single-character marker used in compact
// listings: "A" for anonymous, "T" for transparent, "?" when the check
// did not complete.
func anonymityMarker(a model.Anonymity) string {
	switch a {
	case model.AnonymityAnonymous:
		return "A"
	case model.AnonymityTransparent:
		return "T"
	default:
		return "?"
	}
}

// countryCount pairs an ISO country code with its working-proxy count.
type countryCount struct {
	code  string
	count int
}

// topCountries returns country counts sorted by count descending, ties
// broken alphabetically. A limit of 0 returns all countries.
func topCountries(byCountry map[string]int, limit int) []countryCount {
	counts := make([]countryCount, 0, len(byCountry))
	for code, count := range byCountry {
		counts = append(counts, countryCount{code: code, count: count})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].code < counts[j].code
	})

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}
