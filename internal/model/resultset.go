package model

import (
	"sort"
	"time"
)

// ResultSet accumulates the terminal results of one validation run and
// derives the ranked view and the summary statistics from them.
//
// Design decision: ranking and summary live on the accumulated set
// rather than being computed incrementally because:
// 1. Results arrive in completion order, not latency order
// 2. Re-adding a result for the same endpoint must replace, not duplicate
// 3. An empty set must still produce a valid (zeroed) summary
type ResultSet struct {
	// ReferenceIP is the caller's own public IP, empty when resolution
	// failed and anonymity classification was disabled.
	ReferenceIP string `json:"reference_ip,omitempty"`

	// StartedAt is when the run began, used for elapsed time in summaries.
	StartedAt time.Time `json:"started_at"`

	results []*ProbeResult
	index   map[string]int // endpoint identity -> position in results
}

// NewResultSet creates an empty ResultSet with StartedAt set to now.
func NewResultSet() *ResultSet {
	return &ResultSet{
		StartedAt: time.Now(),
		index:     make(map[string]int),
	}
}

// Add records a terminal result. Adding a second result for the same
// endpoint identity replaces the first, so replaying a result is
// idempotent.
func (s *ResultSet) Add(r *ProbeResult) {
	if r == nil {
		return
	}
	key := r.Endpoint.String()
	if pos, ok := s.index[key]; ok {
		s.results[pos] = r
		return
	}
	s.index[key] = len(s.results)
	s.results = append(s.results, r)
}

// Len returns the number of recorded results.
func (s *ResultSet) Len() int {
	return len(s.results)
}

// All returns every recorded result in insertion order.
func (s *ResultSet) All() []*ProbeResult {
	out := make([]*ProbeResult, len(s.results))
	copy(out, s.results)
	return out
}

// Working returns the working results ranked by latency ascending.
// Results without a latency measurement sort last; ties break
// deterministically by host, then port, then the full candidate string,
// so equal inputs always rank identically.
func (s *ResultSet) Working() []*ProbeResult {
	working := make([]*ProbeResult, 0, len(s.results))
	for _, r := range s.results {
		if r.Working {
			working = append(working, r)
		}
	}
	sort.Slice(working, func(i, j int) bool {
		a, b := working[i], working[j]
		if a.HasLatency() != b.HasLatency() {
			return a.HasLatency()
		}
		if a.HasLatency() && a.Latency != b.Latency {
			return a.Latency < b.Latency
		}
		if a.Host != b.Host {
			return a.Host < b.Host
		}
		if a.Port != b.Port {
			return a.Port < b.Port
		}
		return a.Proxy < b.Proxy
	})
	return working
}

// TopFastest returns up to n of the fastest working results.
func (s *ResultSet) TopFastest(n int) []*ProbeResult {
	working := s.Working()
	if n < 0 {
		n = 0
	}
	if n > len(working) {
		n = len(working)
	}
	return working[:n]
}

// Summary holds the aggregate statistics of one validation run.
type Summary struct {
	// Total is the number of candidates that received a terminal result.
	Total int `json:"total"`
	// Working is the number of candidates that passed the tunneled probe.
	Working int `json:"working"`
	// Anonymous counts working proxies classified anonymous. Unknown
	// classifications are excluded, not counted as transparent.
	Anonymous int `json:"anonymous"`

	// AvgLatencyMS, MinLatencyMS, and MaxLatencyMS summarize the
	// latencies of working proxies that have a measurement. Zero when
	// nothing measured.
	AvgLatencyMS int64 `json:"avg_latency_ms"`
	MinLatencyMS int64 `json:"min_latency_ms"`
	MaxLatencyMS int64 `json:"max_latency_ms"`

	// FastCount, MediumCount, and SlowCount bucket working proxies by
	// the configured tier bounds.
	FastCount   int `json:"fast_count"`
	MediumCount int `json:"medium_count"`
	SlowCount   int `json:"slow_count"`

	// ByCountry counts working proxies per ISO country code when geo
	// enrichment ran. Empty otherwise.
	ByCountry map[string]int `json:"by_country,omitempty"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"-"`
	// ElapsedSeconds mirrors Elapsed for output.
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Summarize computes the aggregate statistics using the given tier
// bounds. An empty set yields a zeroed summary, which is a valid
// outcome distinct from a failed run.
func (s *ResultSet) Summarize(fastBelow, slowFrom time.Duration) Summary {
	sum := Summary{Total: len(s.results)}
	if !s.StartedAt.IsZero() {
		sum.Elapsed = time.Since(s.StartedAt)
		sum.ElapsedSeconds = sum.Elapsed.Seconds()
	}

	var latencyTotal int64
	var measured int64
	for _, r := range s.results {
		if !r.Working {
			continue
		}
		sum.Working++
		if r.Anonymity == AnonymityAnonymous {
			sum.Anonymous++
		}
		if r.Country != "" {
			if sum.ByCountry == nil {
				sum.ByCountry = make(map[string]int)
			}
			sum.ByCountry[r.Country]++
		}
		switch ClassifyTier(r.Latency, fastBelow, slowFrom) {
		case TierFast:
			sum.FastCount++
		case TierMedium:
			sum.MediumCount++
		case TierSlow:
			sum.SlowCount++
		}
		if !r.HasLatency() {
			continue
		}
		ms := r.LatencyMS
		latencyTotal += ms
		measured++
		if sum.MinLatencyMS == 0 || ms < sum.MinLatencyMS {
			sum.MinLatencyMS = ms
		}
		if ms > sum.MaxLatencyMS {
			sum.MaxLatencyMS = ms
		}
	}
	if measured > 0 {
		sum.AvgLatencyMS = latencyTotal / measured
	}
	return sum
}
