package model

import (
	"testing"
	"time"
)

func TestFailureReason_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reason FailureReason
		want   string
	}{
		{FailureNone, "none"},
		{FailureTimeout, "timeout"},
		{FailureConnectionRefused, "connection_refused"},
		{FailureProtocolMismatch, "protocol_mismatch"},
		{FailureHTTPStatus, "http_status"},
		{FailureUnknown, "unknown"},
		{FailureReason(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.reason.String(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAnonymity_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		anonymity Anonymity
		want      string
	}{
		{AnonymityUnknown, "unknown"},
		{AnonymityTransparent, "transparent"},
		{AnonymityAnonymous, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.anonymity.String(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAnonymity_Bool(t *testing.T) {
	t.Parallel()

	t.Run("unknown maps to nil", func(t *testing.T) {
		t.Parallel()
		if got := AnonymityUnknown.Bool(); got != nil {
			t.Errorf("expected nil, got %v", *got)
		}
	})

	t.Run("transparent maps to false", func(t *testing.T) {
		t.Parallel()
		got := AnonymityTransparent.Bool()
		if got == nil || *got {
			t.Errorf("expected false, got %v", got)
		}
	})

	t.Run("anonymous maps to true", func(t *testing.T) {
		t.Parallel()
		got := AnonymityAnonymous.Bool()
		if got == nil || !*got {
			t.Errorf("expected true, got %v", got)
		}
	})
}

func TestClassifyAnonymity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		referenceIP string
		exitIP      string
		want        Anonymity
	}{
		{
			name:        "different exit hides the caller",
			referenceIP: "9.9.9.9",
			exitIP:      "1.1.1.1",
			want:        AnonymityAnonymous,
		},
		{
			name:        "identical exit leaks the caller",
			referenceIP: "9.9.9.9",
			exitIP:      "9.9.9.9",
			want:        AnonymityTransparent,
		},
		{
			name:        "reference inside a comma joined list leaks",
			referenceIP: "9.9.9.9",
			exitIP:      "1.1.1.1, 9.9.9.9",
			want:        AnonymityTransparent,
		},
		{
			name:        "missing reference cannot classify",
			referenceIP: "",
			exitIP:      "1.1.1.1",
			want:        AnonymityUnknown,
		},
		{
			name:        "missing exit cannot classify",
			referenceIP: "9.9.9.9",
			exitIP:      "",
			want:        AnonymityUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyAnonymity(tt.referenceIP, tt.exitIP); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewProbeResult(t *testing.T) {
	t.Parallel()

	ep := MustParseEndpoint("203.0.113.9:1080:carol:pw")
	r := NewProbeResult(ep)

	if r.Proxy != "203.0.113.9:1080:carol:pw" {
		t.Errorf("unexpected proxy field %s", r.Proxy)
	}
	if r.Host != "203.0.113.9" || r.Port != 1080 {
		t.Errorf("unexpected flat address %s:%d", r.Host, r.Port)
	}
	if r.User != "carol" {
		t.Errorf("unexpected user %s", r.User)
	}
	if r.Working {
		t.Error("new result must not start as working")
	}
	if r.TestedAt.IsZero() {
		t.Error("expected TestedAt to be set")
	}
}

func TestProbeResult_Setters(t *testing.T) {
	t.Parallel()

	t.Run("SetLatency mirrors milliseconds", func(t *testing.T) {
		t.Parallel()
		r := NewProbeResult(MustParseEndpoint("1.2.3.4:1080"))
		r.SetLatency(250 * time.Millisecond)
		if r.LatencyMS != 250 {
			t.Errorf("expected 250ms, got %d", r.LatencyMS)
		}
		if !r.HasLatency() {
			t.Error("expected HasLatency after SetLatency")
		}
	})

	t.Run("SetAnonymity mirrors optional bool", func(t *testing.T) {
		t.Parallel()
		r := NewProbeResult(MustParseEndpoint("1.2.3.4:1080"))
		r.SetAnonymity(AnonymityAnonymous)
		if r.Anonymous == nil || !*r.Anonymous {
			t.Error("expected anonymous=true mirror")
		}
		r.SetAnonymity(AnonymityUnknown)
		if r.Anonymous != nil {
			t.Error("expected unknown classification to clear the mirror")
		}
	})

	t.Run("SetFailure records reason and text", func(t *testing.T) {
		t.Parallel()
		r := NewProbeResult(MustParseEndpoint("1.2.3.4:1080"))
		r.Working = true
		r.SetFailure(FailureTimeout, "probe timed out")
		if r.Working {
			t.Error("expected failure to clear working")
		}
		if r.Reason != FailureTimeout {
			t.Errorf("expected timeout reason, got %v", r.Reason)
		}
		if r.Err != "probe timed out" {
			t.Errorf("unexpected diagnostic %q", r.Err)
		}
	})
}
