package recognition

import (
	"math"
	"sync"
)

// Tracker forwards progress to a ProgressFunc, dropping values that would move
// backwards and holding back completion until Finish, which reports 1 exactly once.
type Tracker struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last float64
	done bool
}

// NewTracker wraps fn. A nil fn makes every call a no-op.
func NewTracker(fn ProgressFunc) *Tracker {
	return &Tracker{fn: fn}
}

// Report forwards v clamped to [0,1)
func (t *Tracker) Report(v float64) {
	if t == nil || t.fn == nil || math.IsNaN(v) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done || v >= 1 {
		return
	}
	if v < 0 {
		v = 0
	}
	if v < t.last {
		return
	}
	t.last = v
	t.fn(v)
}

// Finish reports 1 unless it already has
func (t *Tracker) Finish() {
	if t == nil || t.fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.last = 1
	t.fn(1)
}
