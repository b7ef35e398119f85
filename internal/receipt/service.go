package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/receipt-extract/internal/fields"
	"github.com/zombor/receipt-extract/internal/pipeline"
	"github.com/zombor/receipt-extract/internal/raster"
	"github.com/zombor/receipt-extract/internal/reconcile"
)

// Recognizer turns an image into text
type Recognizer interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
}

// IDGenerator generates unique IDs for extractions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service reads receipts: recognition, field extraction, reconciliation and gating
type Service struct {
	recognizer  Recognizer
	templates   *fields.Registry
	policy      reconcile.Policy
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with the default policy, ID generator and time source
func NewService(recognizer Recognizer, templates *fields.Registry) *Service {
	return NewServiceWithDeps(recognizer, templates, reconcile.DefaultPolicy(), &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(recognizer Recognizer, templates *fields.Registry, policy reconcile.Policy, idGen IDGenerator, timeSrc TimeSource) *Service {
	if templates == nil {
		templates = fields.DefaultRegistry()
	}
	return &Service{
		recognizer:  recognizer,
		templates:   templates,
		policy:      policy,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename reduces a filename to a short base name safe for crop files
func sanitizeFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = unsafeChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(spaces.ReplaceAllString(base, "_"))

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base
}

// Extract recognizes a receipt image and reads its fields.
// When the gate fails the extraction is returned together with a *reconcile.GateError.
func (s *Service) Extract(ctx context.Context, req Request) (*Extraction, error) {
	if len(req.Data) == 0 {
		return nil, raster.ErrNoImage
	}

	var tmpl *fields.Template
	if req.Template != "" {
		t, err := s.templates.Get(req.Template)
		if err != nil {
			return nil, err
		}
		tmpl = t
	}

	id := s.idGenerator.Generate()
	outcome, err := s.recognizer.Run(ctx, pipeline.Request{
		Input:      raster.Blob{Data: req.Data, ContentType: req.ContentType},
		Progress:   req.Progress,
		CropPrefix: fmt.Sprintf("%s_%s_", id, sanitizeFilename(req.Filename)),
	})
	if err != nil {
		slog.Error("Failed to recognize receipt",
			"filename", req.Filename,
			"content_type", req.ContentType,
			"file_size", len(req.Data),
			"error", err,
		)
		return nil, fmt.Errorf("recognizing receipt: %w", err)
	}

	if tmpl == nil {
		if tmpl, err = s.templates.Get(s.templates.Detect(outcome.Text)); err != nil {
			return nil, err
		}
	}

	ex := &Extraction{
		ID:        id,
		Template:  tmpl.Key,
		Filename:  req.Filename,
		OCR:       outcome,
		Record:    s.parse(outcome.Text, tmpl),
		CreatedAt: s.timeSource.Now(),
	}
	slog.Info("Extracted receipt",
		"id", ex.ID,
		"template", ex.Template,
		"bands", len(outcome.Bands),
		"ocr_confidence", outcome.MeanConfidence,
		"overall", ex.Record.Overall,
		"issues", len(ex.Record.Issues),
	)

	if err := req.Gate.Check(ex.Record); err != nil {
		var gateErr *reconcile.GateError
		if errors.As(err, &gateErr) {
			slog.Warn("Extraction failed validation", "id", ex.ID, "fields", gateErr.Fields())
		}
		return ex, err
	}
	ex.OK = true
	return ex, nil
}

// ParseText reads fields from already recognized text.
// An empty template key detects the template from the text.
func (s *Service) ParseText(text, template string) (*reconcile.Record, error) {
	if template == "" {
		template = s.templates.Detect(text)
	}
	t, err := s.templates.Get(template)
	if err != nil {
		return nil, err
	}
	return s.parse(text, t), nil
}

func (s *Service) parse(text string, t *fields.Template) *reconcile.Record {
	rec := fields.Extract(text, t)
	if t.Reconcile {
		rec = reconcile.Reconcile(rec, s.policy)
	}
	return rec
}

// Templates lists the registered templates
func (s *Service) Templates() []TemplateInfo {
	templates := s.templates.Templates()
	out := make([]TemplateInfo, 0, len(templates))
	for _, t := range templates {
		names := make([]string, 0, len(t.Rules))
		for _, r := range t.Rules {
			names = append(names, r.Field)
		}
		out = append(out, TemplateInfo{
			Key:         t.Key,
			Description: t.Description,
			Fields:      names,
			Reconcile:   t.Reconcile,
		})
	}
	return out
}
