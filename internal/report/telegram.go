package report

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// Telegram share link formats. Clicking one in any Telegram client
// offers to add the proxy to its connection settings.
const (
	telegramURLFormat     = "https://t.me/socks?server=%s&port=%d"
	telegramAuthURLFormat = "https://t.me/socks?server=%s&port=%d&user=%s&pass=%s"
)

// TelegramURL builds the t.me share link for an endpoint.
// Credentials are URL-escaped so passwords with reserved characters
// survive the query string.
func TelegramURL(ep model.Endpoint) string {
	if ep.HasAuth() {
		return fmt.Sprintf(telegramAuthURLFormat,
			ep.Host(), ep.Port(), url.QueryEscape(ep.User()), url.QueryEscape(ep.Pass()))
	}
	return fmt.Sprintf(telegramURLFormat, ep.Host(), ep.Port())
}

// TelegramWriter renders one t.me share link per working proxy, each
// preceded by a comment line carrying latency and anonymity.
type TelegramWriter struct {
	baseWriter
}

// NewTelegramWriter creates a TelegramWriter that outputs to the given writer.
func NewTelegramWriter(output io.Writer) *TelegramWriter {
	return &TelegramWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the share links for the ranked working proxies.
func (w *TelegramWriter) Write(results *model.ResultSet) (int, error) {
	working := results.Working()

	var sb strings.Builder
	sb.WriteString("# Telegram SOCKS5 Proxy Links\n")
	fmt.Fprintf(&sb, "# Updated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "# Total: %d proxies\n", len(working))
	sb.WriteString("# Click any link to add the proxy to Telegram\n\n")

	for _, r := range working {
		latency := "?"
		if r.HasLatency() {
			latency = strconv.FormatInt(r.LatencyMS, 10)
		}
		fmt.Fprintf(&sb, "# %s:%d - %sms - %s\n", r.Host, r.Port, latency, anonymityLabel(r.Anonymity))
		sb.WriteString(TelegramURL(r.Endpoint))
		sb.WriteString("\n\n")
	}

	return w.output.Write([]byte(sb.String()))
}
