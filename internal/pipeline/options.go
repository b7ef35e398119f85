package pipeline

import (
	"github.com/zombor/receipt-extract/internal/raster"
	"github.com/zombor/receipt-extract/internal/recognition"
)

// Options configures an extraction run
type Options struct {
	Languages      string
	BaseMode       recognition.PageSegMode
	FallbackMode   recognition.PageSegMode
	Fallback       bool // run the fallback pass on short bands
	PreserveSpaces bool
	ShortTextRunes int // trimmed text shorter than this triggers the fallback pass
	DarkThreshold  float64
	Cuts           raster.CutOptions

	// ContinueOnBandError records failed bands and keeps going instead of aborting
	ContinueOnBandError bool

	// Crops receives every band crop when set
	Crops CropSink
}

// DefaultOptions returns eng+spa, single-block recognition with a full-page
// fallback for bands under 25 characters
func DefaultOptions() Options {
	return Options{
		Languages:      recognition.DefaultLanguages,
		BaseMode:       recognition.ModeSingleBlock,
		FallbackMode:   recognition.ModeAuto,
		Fallback:       true,
		PreserveSpaces: true,
		ShortTextRunes: 25,
		DarkThreshold:  raster.DefaultDarkThreshold,
		Cuts:           raster.DefaultCutOptions(),
	}
}
