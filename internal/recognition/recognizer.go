package recognition

import (
	"context"

	"github.com/zombor/receipt-extract/internal/raster"
)

// PageSegMode tells the engine how to read the layout of a region.
// Values follow Tesseract's numbering.
type PageSegMode int

const (
	ModeOSDOnly             PageSegMode = 0
	ModeAutoOSD             PageSegMode = 1
	ModeAutoOnly            PageSegMode = 2
	ModeAuto                PageSegMode = 3
	ModeSingleColumn        PageSegMode = 4
	ModeSingleBlockVertText PageSegMode = 5
	ModeSingleBlock         PageSegMode = 6
	ModeSingleLine          PageSegMode = 7
	ModeSingleWord          PageSegMode = 8
	ModeCircleWord          PageSegMode = 9
	ModeSingleChar          PageSegMode = 10
	ModeSparseText          PageSegMode = 11
	ModeSparseTextOSD       PageSegMode = 12
	ModeRawLine             PageSegMode = 13
)

// DefaultLanguages is the language set used when a request names none
const DefaultLanguages = "eng+spa"

// Scale identifies the range a backend reports confidences in
type Scale int

const (
	// ScaleUnit means confidences are in [0,1]
	ScaleUnit Scale = iota
	// ScalePercent means confidences are in [0,100]
	ScalePercent
)

// ProgressFunc receives fractional progress in [0,1]
type ProgressFunc func(fraction float64)

// Request is one recognition call on a region
type Request struct {
	Image          *raster.Surface
	Languages      string // ISO 639-2 codes joined with '+'
	Mode           PageSegMode
	PreserveSpaces bool
	Progress       ProgressFunc
}

// Word is a single recognized word
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Output is what a backend returns. Confidence is nil when the backend
// reports none, in which case word confidences are used.
type Output struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
	Words      []Word   `json:"words,omitempty"`
	Scale      Scale    `json:"scale"`
}

// Recognizer is the text recognition capability
type Recognizer interface {
	// Recognize reads the text in the request's region
	Recognize(ctx context.Context, req Request) (*Output, error)
	// Name identifies the backend in logs, errors and cache keys
	Name() string
	// Close releases backend resources
	Close() error
}
