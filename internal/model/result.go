package model

import (
	"strings"
	"time"
)

// FailureReason classifies why a probe did not produce a working proxy.
// Reasons are recorded on the result and never drive control flow: a
// failed probe is ordinary data, not an engine error.
//
// Design decision: We use iota-based constants rather than string
// constants for efficiency in comparisons and grouping. The String()
// method provides the stable label used in logs and the archive.
type FailureReason int

const (
	// FailureNone indicates the probe succeeded.
	FailureNone FailureReason = iota

	// FailureTimeout indicates the per-probe deadline expired before the
	// tunneled request completed. Slow and dead proxies both land here.
	FailureTimeout

	// FailureConnectionRefused indicates the TCP connection to the
	// candidate was actively refused.
	FailureConnectionRefused

	// FailureProtocolMismatch indicates the remote spoke something other
	// than SOCKS5: bad version byte, no acceptable auth method, or a
	// rejected CONNECT.
	FailureProtocolMismatch

	// FailureHTTPStatus indicates the tunnel was established but the
	// echo request returned a non-200 status.
	FailureHTTPStatus

	// FailureUnknown covers every other transport or protocol error.
	FailureUnknown
)

// String returns the stable label for the failure reason.
func (f FailureReason) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureTimeout:
		return "timeout"
	case FailureConnectionRefused:
		return "connection_refused"
	case FailureProtocolMismatch:
		return "protocol_mismatch"
	case FailureHTTPStatus:
		return "http_status"
	default:
		return "unknown"
	}
}

// Anonymity is the tri-state classification of a working proxy.
// Unknown means the check could not run (reference IP or exit IP
// missing) and must never be collapsed into Transparent.
type Anonymity int

const (
	// AnonymityUnknown indicates the classification could not be made.
	AnonymityUnknown Anonymity = iota
	// AnonymityTransparent indicates the caller's IP leaks through the proxy.
	AnonymityTransparent
	// AnonymityAnonymous indicates the exit IP hides the caller's IP.
	AnonymityAnonymous
)

// String returns a human-readable representation of the anonymity class.
func (a Anonymity) String() string {
	switch a {
	case AnonymityTransparent:
		return "transparent"
	case AnonymityAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Bool returns the optional boolean form used in serialized results:
// nil for unknown, otherwise a pointer to the anonymous verdict.
func (a Anonymity) Bool() *bool {
	switch a {
	case AnonymityTransparent:
		v := false
		return &v
	case AnonymityAnonymous:
		v := true
		return &v
	default:
		return nil
	}
}

// ClassifyAnonymity compares the caller's reference IP with the exit IP
// reported by the echo service. Echo services may return a comma-joined
// address list, so the reference IP is matched as a substring: if it
// appears anywhere in the exit string the proxy leaked it.
// Either side missing yields AnonymityUnknown.
func ClassifyAnonymity(referenceIP, exitIP string) Anonymity {
	if referenceIP == "" || exitIP == "" {
		return AnonymityUnknown
	}
	if strings.Contains(exitIP, referenceIP) {
		return AnonymityTransparent
	}
	return AnonymityAnonymous
}

// ProbeResult is the terminal outcome of probing one candidate endpoint.
// Every accepted candidate produces exactly one ProbeResult regardless
// of how the probe ends.
//
// Failure details are kept as an enum plus a free-text diagnostic so the
// enum can be grouped on while the text keeps the original error.
type ProbeResult struct {
	// Endpoint is the probed candidate. Excluded from JSON because its
	// fields are unexported; the flat fields below carry the same data.
	Endpoint Endpoint `json:"-"`

	// Proxy is the canonical candidate string (Endpoint.String()).
	Proxy string `json:"proxy"`
	// Host is the candidate's IPv4 address.
	Host string `json:"ip"`
	// Port is the candidate's TCP port.
	Port uint16 `json:"port"`
	// User is the proxy username, omitted for unauthenticated endpoints.
	User string `json:"user,omitempty"`

	// Working is true only when an HTTP request tunneled through the
	// proxy completed with status 200 inside the probe deadline.
	Working bool `json:"working"`

	// Latency is the wall-clock probe duration. Only meaningful when
	// Working is true.
	Latency time.Duration `json:"-"`
	// LatencyMS mirrors Latency in integer milliseconds for output.
	LatencyMS int64 `json:"latency,omitempty"`

	// ExitIP is the address the echo service saw, kept verbatim; some
	// services return a comma-joined list.
	ExitIP string `json:"exit_ip,omitempty"`

	// Anonymity is the tri-state classification.
	Anonymity Anonymity `json:"-"`
	// Anonymous mirrors Anonymity for output: absent when unknown.
	Anonymous *bool `json:"anonymous,omitempty"`

	// Country is the ISO country code added by geo enrichment, if enabled.
	Country string `json:"country,omitempty"`

	// Reason classifies a failed probe. FailureNone when Working.
	Reason FailureReason `json:"-"`
	// Err is the diagnostic text for a failed probe.
	Err string `json:"error,omitempty"`

	// TestedAt is the time the probe started.
	TestedAt time.Time `json:"tested_at"`
}

// NewProbeResult creates a ProbeResult for the given endpoint with the
// flat output fields prefilled and TestedAt set to now.
func NewProbeResult(ep Endpoint) *ProbeResult {
	return &ProbeResult{
		Endpoint: ep,
		Proxy:    ep.String(),
		Host:     ep.Host(),
		Port:     ep.Port(),
		User:     ep.User(),
		TestedAt: time.Now(),
	}
}

// SetLatency records the probe duration and its millisecond mirror.
func (r *ProbeResult) SetLatency(d time.Duration) {
	r.Latency = d
	r.LatencyMS = d.Milliseconds()
}

// SetAnonymity records the classification and its optional-bool mirror.
func (r *ProbeResult) SetAnonymity(a Anonymity) {
	r.Anonymity = a
	r.Anonymous = a.Bool()
}

// SetFailure marks the result failed with a reason and diagnostic text.
func (r *ProbeResult) SetFailure(reason FailureReason, message string) {
	r.Working = false
	r.Reason = reason
	r.Err = message
}

// HasLatency reports whether a latency measurement was recorded.
func (r *ProbeResult) HasLatency() bool {
	return r.Latency > 0
}
