package model

import (
	"sync"
	"time"
)

// Progress is a point-in-time snapshot of a running validation batch,
// emitted after each probe completes.
type Progress struct {
	// Tested is the number of candidates with a terminal result so far.
	Tested int `json:"tested"`
	// Total is the number of candidates in the batch.
	Total int `json:"total"`
	// Working is the number of working proxies found so far.
	Working int `json:"working"`
	// ETA estimates the remaining runtime from cumulative throughput.
	// Zero until at least one probe has completed.
	ETA time.Duration `json:"-"`
	// ETASeconds mirrors ETA for output.
	ETASeconds float64 `json:"estimated_seconds_remaining"`
}

// Done reports whether every candidate has a terminal result.
func (p Progress) Done() bool {
	return p.Tested >= p.Total
}

// ProgressTracker counts probe completions and derives ETA snapshots.
// It is safe for concurrent use; the scheduler records completions from
// many goroutines.
type ProgressTracker struct {
	mu        sync.Mutex
	total     int
	tested    int
	working   int
	startedAt time.Time
}

// NewProgressTracker creates a tracker for a batch of the given size.
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startedAt: time.Now(),
	}
}

// Record counts one completed probe and returns the updated snapshot.
func (t *ProgressTracker) Record(working bool) Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tested++
	if working {
		t.working++
	}
	return t.snapshotLocked()
}

// Snapshot returns the current progress without recording a completion.
func (t *ProgressTracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snapshotLocked()
}

// snapshotLocked builds a Progress from the current counters.
// Callers must hold mu.
func (t *ProgressTracker) snapshotLocked() Progress {
	eta := t.eta()
	return Progress{
		Tested:     t.tested,
		Total:      t.total,
		Working:    t.working,
		ETA:        eta,
		ETASeconds: eta.Seconds(),
	}
}

// eta estimates remaining runtime as remaining/rate where rate is the
// cumulative completions per second. Callers must hold mu.
func (t *ProgressTracker) eta() time.Duration {
	if t.tested == 0 {
		return 0
	}
	elapsed := time.Since(t.startedAt)
	if elapsed <= 0 {
		return 0
	}
	rate := float64(t.tested) / elapsed.Seconds()
	if rate <= 0 {
		return 0
	}
	remaining := t.total - t.tested
	return time.Duration(float64(remaining) / rate * float64(time.Second))
}
