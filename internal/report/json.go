package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// JSONWriter outputs results as a single JSON document for tool
// integration: piping into jq, feeding a rotation bot, archiving runs.
//
// Design decision: encoding/json from the standard library is enough here.
// The document is written once per run, so streaming encoders and faster
// third-party codecs would buy nothing measurable.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output; the prefix and indentString
	// follow json.MarshalIndent semantics.
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent sets the prefix and indentation for pretty-printed output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithCompact disables pretty-printing, producing single-line output
// for pipelines that consume one document per write.
func WithCompact() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = false
		w.indentPrefix = ""
		w.indentString = ""
	}
}

// NewJSONWriter creates a JSONWriter that outputs two-space indented
// JSON to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       true,
		indentString: "  ",
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonDocument is the output envelope for a validation run.
//
// Design decision: the working list is wrapped instead of serializing
// ResultSet directly, so output-only fields like the generation timestamp
// live here and never leak into the core data structures.
type jsonDocument struct {
	// UpdatedAt is the time the document was generated.
	UpdatedAt time.Time `json:"updated_at"`

	// ReferenceIP is the caller's direct address used for the
	// anonymity comparison, when it was resolved.
	ReferenceIP string `json:"reference_ip,omitempty"`

	// TotalWorking is the number of proxies in the list.
	TotalWorking int `json:"total_working"`

	// Proxies is the working list ranked fastest first.
	Proxies []*model.ProbeResult `json:"proxies"`
}

// Write outputs the ranked working proxies as a JSON document.
func (w *JSONWriter) Write(results *model.ResultSet) (int, error) {
	working := results.Working()

	return w.writeJSON(jsonDocument{
		UpdatedAt:    time.Now().UTC(),
		ReferenceIP:  results.ReferenceIP,
		TotalWorking: len(working),
		Proxies:      working,
	})
}

// writeJSON marshals v and writes it followed by a trailing newline, so
// terminal output and concatenated files stay line-separated.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	data, err := w.marshal(v)
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}

// marshal applies the configured indentation.
func (w *JSONWriter) marshal(v any) ([]byte, error) {
	if w.indent {
		return json.MarshalIndent(v, w.indentPrefix, w.indentString)
	}
	return json.Marshal(v)
}
