// Package proxylist turns raw candidate material into model.Endpoint
// values.
//
// Three input shapes are supported:
//   - Line-oriented list files (ParseList): one candidate per line with
//     optional credentials, blank lines and # comments
//   - Arbitrary text (ExtractFromText): ip:port pairs scanned out of any
//     surrounding decoration a public source wraps them in
//   - JSON APIs (ExtractFromJSON): object lists with ip/host/address and
//     port fields, optionally nested under a dot-separated path
//
// All three dedupe by full endpoint identity and preserve first-seen
// order, so downstream stages see each candidate exactly once.
package proxylist
