package model

import (
	"testing"
	"time"
)

func TestTier_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tier Tier
		want string
	}{
		{TierFast, "fast"},
		{TierMedium, "medium"},
		{TierSlow, "slow"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.tier.String(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassifyTier(t *testing.T) {
	t.Parallel()

	const (
		fastBelow = time.Second
		slowFrom  = 3 * time.Second
	)

	tests := []struct {
		name    string
		latency time.Duration
		want    Tier
	}{
		{name: "just under the fast bound", latency: 999 * time.Millisecond, want: TierFast},
		{name: "exactly the fast bound", latency: time.Second, want: TierMedium},
		{name: "just under the slow bound", latency: 2999 * time.Millisecond, want: TierMedium},
		{name: "exactly the slow bound", latency: 3 * time.Second, want: TierSlow},
		{name: "well above the slow bound", latency: 20 * time.Second, want: TierSlow},
		{name: "no measurement", latency: 0, want: TierSlow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyTier(tt.latency, fastBelow, slowFrom); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestClassifyTier_CustomBounds(t *testing.T) {
	t.Parallel()

	// Bounds come from configuration, so reclassifying the same latency
	// with different bounds must move it between tiers.
	latency := 1500 * time.Millisecond

	if got := ClassifyTier(latency, time.Second, 3*time.Second); got != TierMedium {
		t.Errorf("expected medium with default bounds, got %v", got)
	}
	if got := ClassifyTier(latency, 2*time.Second, 3*time.Second); got != TierFast {
		t.Errorf("expected fast with a relaxed fast bound, got %v", got)
	}
	if got := ClassifyTier(latency, 500*time.Millisecond, time.Second); got != TierSlow {
		t.Errorf("expected slow with a tight slow bound, got %v", got)
	}
}
