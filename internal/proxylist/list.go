package proxylist

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// commentPrefix marks comment lines in candidate list files.
const commentPrefix = "#"

// ParseList reads a line-oriented candidate list: one ip:port or
// ip:port:user:pass per line, with blank lines and # comments skipped.
// Malformed lines are dropped with a debug log and never abort the
// batch; the returned endpoints are unique by full identity and keep
// their first-seen order.
func ParseList(r io.Reader, logger *slog.Logger) ([]model.Endpoint, error) {
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]bool)
	var endpoints []model.Endpoint

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		ep, err := model.ParseEndpoint(line)
		if err != nil {
			logger.Debug("dropping malformed candidate",
				"line", lineNo,
				"error", err)
			continue
		}

		key := ep.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		endpoints = append(endpoints, ep)
	}
	if err := scanner.Err(); err != nil {
		return endpoints, fmt.Errorf("read candidate list: %w", err)
	}
	return endpoints, nil
}

// Dedupe removes duplicate endpoints by full identity, preserving
// first-seen order. Used when candidates from several inputs are merged.
func Dedupe(endpoints []model.Endpoint) []model.Endpoint {
	seen := make(map[string]bool, len(endpoints))
	out := make([]model.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		key := ep.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ep)
	}
	return out
}
