package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zombor/receipt-extract/internal/raster"
	"github.com/zombor/receipt-extract/internal/recognition"
)

// Outcome is the recognized text of a whole image
type Outcome struct {
	Text           string        `json:"text"`
	MeanConfidence float64       `json:"meanConfidence"`
	Bands          []BandResult  `json:"bands"`
	Cuts           raster.Cuts   `json:"cuts"`
	Regions        []raster.Band `json:"regions"`
	Crops          []string      `json:"crops,omitempty"`
	Partial        bool          `json:"partial,omitempty"`
}

// Request is one extraction run
type Request struct {
	// Input is anything raster.Loader.Prepare accepts
	Input    any
	Progress ProgressSink
	// CropPrefix is prepended to exported crop names
	CropPrefix string
}

// Pipeline splits an image into three bands at clean cuts and recognizes each one
type Pipeline struct {
	adapter *recognition.Adapter
	loader  *raster.Loader
	opts    Options
	logger  *slog.Logger
}

// New creates a new Pipeline. A nil logger uses slog.Default().
func New(r recognition.Recognizer, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		adapter: recognition.NewAdapter(r),
		loader:  raster.NewLoader(nil),
		opts:    opts,
		logger:  logger,
	}
}

// Options returns the pipeline configuration
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run prepares the input and recognizes it.
// Input errors are returned before any recognition starts.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	src, err := p.loader.Prepare(ctx, req.Input)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, src, req)
}

func (p *Pipeline) run(ctx context.Context, src *raster.Surface, req Request) (*Outcome, error) {
	ink := raster.InkProfile(src, p.opts.DarkThreshold)
	cuts, err := raster.SelectCuts(ink, p.opts.Cuts)
	if err != nil {
		return nil, err
	}
	regions := raster.Bands(src.Height(), cuts)

	p.logger.Debug("Selected cuts",
		"height", src.Height(),
		"y1", cuts.Upper.Y, "score1", cuts.Upper.Score,
		"y2", cuts.Lower.Y, "score2", cuts.Lower.Score,
		"tight", cuts.Tight,
	)

	var sink recognition.ProgressFunc
	if req.Progress != nil {
		sink = req.Progress.Progress
	}
	tracker := recognition.NewTracker(sink)

	outcome := &Outcome{Cuts: cuts, Regions: regions}
	for i, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction stopped before band %s: %w", region.Name, err)
		}

		crop := src.Crop(0, region.Y, src.Width(), region.Height)
		if path := p.exportCrop(req.CropPrefix, region.Name, crop); path != "" {
			outcome.Crops = append(outcome.Crops, path)
		}

		result, err := p.recognizeBand(ctx, region.Name, crop, bandProgress(tracker, i, len(regions)))
		if err != nil {
			if ctx.Err() != nil || !p.opts.ContinueOnBandError {
				return nil, fmt.Errorf("band %s: %w", region.Name, err)
			}
			p.logger.Warn("Band recognition failed, continuing", "band", region.Name, "error", err)
			result = BandResult{Name: region.Name, Err: err.Error()}
			outcome.Partial = true
		}
		outcome.Bands = append(outcome.Bands, result)
		tracker.Report(float64(i+1) / float64(len(regions)))
	}

	outcome.Text, outcome.MeanConfidence = Assemble(outcome.Bands)
	tracker.Finish()
	return outcome, nil
}

// exportCrop hands the crop to the configured sink. Failures are logged only.
func (p *Pipeline) exportCrop(prefix, name string, crop *raster.Surface) string {
	if p.opts.Crops == nil {
		return ""
	}
	data, err := crop.PNG()
	if err != nil {
		p.logger.Warn("Failed to encode band crop", "band", name, "error", err)
		return ""
	}
	path, err := p.opts.Crops.Save(fmt.Sprintf("%sband-%s.png", prefix, name), data)
	if err != nil {
		p.logger.Warn("Failed to export band crop", "band", name, "error", err)
		return ""
	}
	return path
}
