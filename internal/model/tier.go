package model

import "time"

// Tier buckets a working proxy by measured latency. The bucket
// boundaries are configuration, not constants: callers pass the bounds
// at classification time so operators can tune what "fast" means for
// their network.
type Tier int

const (
	// TierFast is below the fast bound (default under one second).
	TierFast Tier = iota
	// TierMedium is between the fast and slow bounds.
	TierMedium
	// TierSlow is at or above the slow bound.
	TierSlow
)

// String returns a human-readable representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierFast:
		return "fast"
	case TierMedium:
		return "medium"
	default:
		return "slow"
	}
}

// ClassifyTier buckets a latency using the given bounds. A latency
// below fastBelow is fast, at or above slowFrom is slow, and
// everything between is medium. Results with no measured latency are
// classified slow.
func ClassifyTier(latency time.Duration, fastBelow, slowFrom time.Duration) Tier {
	if latency <= 0 {
		return TierSlow
	}
	if latency < fastBelow {
		return TierFast
	}
	if latency < slowFrom {
		return TierMedium
	}
	return TierSlow
}
