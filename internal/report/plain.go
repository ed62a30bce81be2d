package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// PlainWriter renders the working list as one candidate per line,
// fastest first, ready to feed back into the scanner or any other tool
// that reads ip:port[:user:pass] lists.
type PlainWriter struct {
	baseWriter
}

// NewPlainWriter creates a PlainWriter that outputs to the given writer.
func NewPlainWriter(output io.Writer) *PlainWriter {
	return &PlainWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the ranked working proxies with a short comment header.
// Failed candidates are omitted.
func (w *PlainWriter) Write(results *model.ResultSet) (int, error) {
	working := results.Working()

	var sb strings.Builder
	sb.WriteString("# SOCKS5 Working Proxies\n")
	fmt.Fprintf(&sb, "# Updated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "# Total: %d proxies\n", len(working))
	sb.WriteString("# Format: ip:port[:user:pass]\n\n")

	for _, r := range working {
		sb.WriteString(r.Proxy)
		sb.WriteString("\n")
	}

	return w.output.Write([]byte(sb.String()))
}
