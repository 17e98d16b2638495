package metrics

import "sync"

// SuccessTracker accumulates a success/failure count for the current
// 1-minute sample window the alert checker and self-check health probe
// both read (spec §4.5's HIGH_ERROR_RATE condition, §4.8's self-check).
type SuccessTracker struct {
	mu       sync.Mutex
	success  int
	failure  int
}

func NewSuccessTracker() *SuccessTracker { return &SuccessTracker{} }

func (t *SuccessTracker) RecordSuccess() {
	t.mu.Lock()
	t.success++
	t.mu.Unlock()
}

func (t *SuccessTracker) RecordFailure() {
	t.mu.Lock()
	t.failure++
	t.mu.Unlock()
}

// SuccessRate returns the success ratio for the current window; 1.0 when
// no samples have been observed yet, matching "never null, zero-activity
// defaults to healthy" elsewhere in the service.
func (t *SuccessTracker) SuccessRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.success + t.failure
	if total == 0 {
		return 1.0
	}
	return float64(t.success) / float64(total)
}

// ResetWindow clears the current window's counts, called by the
// alert-check scheduled task once it has sampled the rate (spec §5).
func (t *SuccessTracker) ResetWindow() {
	t.mu.Lock()
	t.success = 0
	t.failure = 0
	t.mu.Unlock()
}
