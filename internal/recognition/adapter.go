package recognition

import (
	"context"
	"fmt"
	"math"

	"github.com/zombor/receipt-extract/internal/raster"
)

// Params configures a recognition call
type Params struct {
	Languages      string
	Mode           PageSegMode
	PreserveSpaces bool
}

// Result is recognized text with a confidence in [0,1]
type Result struct {
	Text           string  `json:"text"`
	MeanConfidence float64 `json:"meanConfidence"`
}

// Adapter runs a Recognizer and normalizes its output
type Adapter struct {
	recognizer Recognizer
}

// NewAdapter creates a new Adapter around r
func NewAdapter(r Recognizer) *Adapter {
	return &Adapter{recognizer: r}
}

// Name returns the wrapped backend name
func (a *Adapter) Name() string {
	return a.recognizer.Name()
}

// Recognize reads region and returns its text and mean confidence.
// Progress values are clamped, non-decreasing and end with a single 1 on success.
// Failures are returned as-is, wrapped with the backend name, and never retried.
func (a *Adapter) Recognize(ctx context.Context, region *raster.Surface, p Params, progress ProgressFunc) (Result, error) {
	if region == nil {
		return Result{}, raster.ErrNoImage
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	langs := p.Languages
	if langs == "" {
		langs = DefaultLanguages
	}

	tracker := NewTracker(progress)
	out, err := a.recognizer.Recognize(ctx, Request{
		Image:          region,
		Languages:      langs,
		Mode:           p.Mode,
		PreserveSpaces: p.PreserveSpaces,
		Progress:       tracker.Report,
	})
	if err != nil {
		return Result{}, fmt.Errorf("recognizing with %s: %w", a.recognizer.Name(), err)
	}
	if out == nil {
		out = &Output{}
	}
	tracker.Finish()

	return Result{Text: out.Text, MeanConfidence: MeanConfidence(out)}, nil
}

// MeanConfidence returns the reported confidence or, when there is none, the
// mean of the positive word confidences. The result is scaled into [0,1].
func MeanConfidence(out *Output) float64 {
	div := 1.0
	if out.Scale == ScalePercent {
		div = 100
	}
	if out.Confidence != nil && !math.IsNaN(*out.Confidence) && !math.IsInf(*out.Confidence, 0) {
		return unit(*out.Confidence / div)
	}

	sum, n := 0.0, 0
	for _, w := range out.Words {
		c := w.Confidence
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			continue
		}
		sum += c
		n++
	}
	if n == 0 {
		return 0
	}
	return unit(sum / float64(n) / div)
}

func unit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
