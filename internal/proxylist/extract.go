package proxylist

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/MixCoatl-44/Proxy-Scanner/internal/model"
)

// candidateRegex matches ip:port pairs embedded in arbitrary text.
// Sources publish lists with varying decoration (HTML fragments, status
// columns, blank padding), so extraction scans for the pattern anywhere
// and leaves strict validation to ParseEndpoint.
//
// Design decision: a permissive regex plus strict post-validation rather
// than line splitting because:
//  1. Many sources wrap entries in markup or append metadata per line
//  2. The regex alone accepts octets above 255; ParseEndpoint rejects them
//  3. One pass covers every plain-text source format seen in the wild
var candidateRegex = regexp.MustCompile(`(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}):(\d{2,5})`)

// ExtractFromText scans arbitrary text for ip:port candidates, validates
// each match, and returns unique endpoints in first-seen order.
func ExtractFromText(text string) []model.Endpoint {
	matches := candidateRegex.FindAllStringSubmatch(text, -1)

	seen := make(map[string]bool, len(matches))
	endpoints := make([]model.Endpoint, 0, len(matches))
	for _, m := range matches {
		ep, err := model.ParseEndpoint(m[1] + ":" + m[2])
		if err != nil {
			continue
		}
		key := ep.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		endpoints = append(endpoints, ep)
	}
	return endpoints
}

// ExtractFromJSON extracts candidates from a JSON source body. The
// optional jsonPath is a dot-separated object path to the candidate
// list (GeoNode nests its results under "data"). List items may be
// objects carrying ip/host/address plus a numeric or string port, or
// plain "ip:port" strings.
// Callers should fall back to ExtractFromText when this returns an error.
func ExtractFromJSON(data []byte, jsonPath string) ([]model.Endpoint, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode source body: %w", err)
	}

	node := root
	if jsonPath != "" {
		for _, key := range strings.Split(jsonPath, ".") {
			obj, ok := node.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("json path %q: expected object at %q", jsonPath, key)
			}
			node, ok = obj[key]
			if !ok {
				return nil, fmt.Errorf("json path %q: missing key %q", jsonPath, key)
			}
		}
	}

	items, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("json path %q: expected a list", jsonPath)
	}

	seen := make(map[string]bool, len(items))
	endpoints := make([]model.Endpoint, 0, len(items))
	for _, item := range items {
		candidate := candidateFromItem(item)
		if candidate == "" {
			continue
		}
		ep, err := model.ParseEndpoint(candidate)
		if err != nil {
			continue
		}
		key := ep.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// candidateFromItem renders one JSON list item as an "ip:port" string,
// or "" when the item carries no usable address.
func candidateFromItem(item any) string {
	switch v := item.(type) {
	case string:
		if strings.Contains(v, ":") {
			return strings.TrimSpace(v)
		}
	case map[string]any:
		host := stringField(v, "ip", "host", "address")
		port := portField(v)
		if host != "" && port != "" {
			return host + ":" + port
		}
	}
	return ""
}

// stringField returns the first non-empty string value among keys.
func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// portField renders the port value, which sources encode as either a
// JSON number or a string.
func portField(obj map[string]any) string {
	switch p := obj["port"].(type) {
	case string:
		return p
	case float64:
		return fmt.Sprintf("%d", int(p))
	}
	return ""
}
