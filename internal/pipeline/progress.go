package pipeline

import (
	"github.com/zombor/receipt-extract/internal/recognition"
)

// ProgressSink receives monotonically non-decreasing fractions in [0,1]
type ProgressSink interface {
	Progress(fraction float64)
}

// ProgressFunc adapts a plain function to ProgressSink
type ProgressFunc func(fraction float64)

// Progress calls f
func (f ProgressFunc) Progress(fraction float64) {
	f(fraction)
}

// bandProgress maps a band's own [0,1] progress into its share of the whole run
func bandProgress(t *recognition.Tracker, index, count int) recognition.ProgressFunc {
	return func(p float64) {
		t.Report((float64(index) + p) / float64(count))
	}
}
