// Package model holds the data structures shared across the validation
// engine:
//   - Endpoint: an immutable SOCKS5 proxy candidate (host, port, credentials)
//   - ProbeResult: the terminal outcome of probing one candidate
//   - ResultSet: accumulated results with latency ranking and summary statistics
//   - Progress: streaming snapshots of a running batch
//
// probe, pipeline, report, and database all consume these types, so they
// live here to keep the import graph acyclic. Everything serializes
// cleanly to JSON for reports and the archive; enum-valued fields pair a
// `json:"-"` enum for code with a flat mirror field for output.
package model
