package receipt

import (
	"time"

	"github.com/zombor/receipt-extract/internal/pipeline"
	"github.com/zombor/receipt-extract/internal/reconcile"
)

// Request is one receipt to extract
type Request struct {
	Filename    string
	Data        []byte
	ContentType string
	// Template selects the field template; empty detects it from the text
	Template string
	Gate     reconcile.Gate
	Progress pipeline.ProgressSink
}

// Extraction is the result of reading one receipt
type Extraction struct {
	ID        string            `json:"id"`
	Template  string            `json:"template"`
	Filename  string            `json:"filename,omitempty"`
	OCR       *pipeline.Outcome `json:"ocr,omitempty"`
	Record    *reconcile.Record `json:"record"`
	OK        bool              `json:"ok"`
	CreatedAt time.Time         `json:"created_at"`
}

// TemplateInfo describes a registered template
type TemplateInfo struct {
	Key         string   `json:"key"`
	Description string   `json:"description"`
	Fields      []string `json:"fields"`
	Reconcile   bool     `json:"reconcile"`
}
