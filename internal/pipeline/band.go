package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zombor/receipt-extract/internal/raster"
	"github.com/zombor/receipt-extract/internal/recognition"
)

// BandResult is the chosen recognition for one band
type BandResult struct {
	Name           string  `json:"name"`
	Text           string  `json:"text"`
	MeanConfidence float64 `json:"meanConfidence"`
	UsedInverted   bool    `json:"usedInverted"`
	UsedFallback   bool    `json:"usedFallback,omitempty"`
	Err            string  `json:"error,omitempty"`
}

// Failed reports whether recognition of the band failed
func (b BandResult) Failed() bool {
	return b.Err != ""
}

// Better returns the preferred of two results: the longer trimmed text wins,
// then the higher confidence. Full ties keep a.
func Better(a, b recognition.Result) recognition.Result {
	la := utf8.RuneCountInString(strings.TrimSpace(a.Text))
	lb := utf8.RuneCountInString(strings.TrimSpace(b.Text))
	if la != lb {
		if la > lb {
			return a
		}
		return b
	}
	if a.MeanConfidence >= b.MeanConfidence {
		return a
	}
	return b
}

func (o Options) isShort(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < o.ShortTextRunes
}

// recognizeBand runs the normal pass, the inverted pass for the top band and
// the fallback pass when the best text is still short. Only the normal pass
// reports progress.
func (p *Pipeline) recognizeBand(ctx context.Context, name string, region *raster.Surface, progress recognition.ProgressFunc) (BandResult, error) {
	params := recognition.Params{
		Languages:      p.opts.Languages,
		Mode:           p.opts.BaseMode,
		PreserveSpaces: p.opts.PreserveSpaces,
	}

	best, err := p.adapter.Recognize(ctx, region, params, progress)
	if err != nil {
		return BandResult{}, fmt.Errorf("normal pass: %w", err)
	}

	usedInverted := false
	if name == raster.BandTop {
		if err := ctx.Err(); err != nil {
			return BandResult{}, err
		}
		inv, err := p.adapter.Recognize(ctx, region.Invert(), params, nil)
		if err != nil {
			return BandResult{}, fmt.Errorf("inverted pass: %w", err)
		}
		chosen := Better(best, inv)
		usedInverted = chosen != best
		best = chosen
	}

	usedFallback := false
	if p.opts.Fallback && p.opts.isShort(best.Text) {
		if err := ctx.Err(); err != nil {
			return BandResult{}, err
		}
		params.Mode = p.opts.FallbackMode
		alt, err := p.adapter.Recognize(ctx, region, params, nil)
		if err != nil {
			return BandResult{}, fmt.Errorf("fallback pass: %w", err)
		}
		if !p.opts.isShort(alt.Text) || alt.MeanConfidence > best.MeanConfidence {
			best = alt
			usedFallback = true
		}
	}

	p.logger.Debug("Band recognized",
		"band", name,
		"chars", utf8.RuneCountInString(strings.TrimSpace(best.Text)),
		"confidence", best.MeanConfidence,
		"inverted", usedInverted,
		"fallback", usedFallback,
	)

	return BandResult{
		Name:           name,
		Text:           best.Text,
		MeanConfidence: best.MeanConfidence,
		UsedInverted:   usedInverted,
		UsedFallback:   usedFallback,
	}, nil
}
