// Package collect gathers candidate endpoints from public proxy lists.
//
// A Collector walks a catalog of sources (aggregator APIs, GitHub raw
// lists, one JSON API), fetches each with a browser User-Agent and a
// per-source deadline, and extracts ip:port candidates through the
// proxylist package. Collection is best-effort: a dead source is recorded
// in its SourceStatus and the pass moves on. Nothing collected here is
// trusted; candidates earn their place through the probe engine.
package collect
