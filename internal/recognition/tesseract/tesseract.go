// Package tesseract is the local, cgo-backed Tesseract recognizer.
// Importing it requires the Tesseract and Leptonica headers.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/zombor/receipt-extract/internal/recognition"
)

// Recognizer implements recognition.Recognizer using a local Tesseract install
type Recognizer struct {
	tessdataPrefix string
}

// New creates a Tesseract Recognizer.
// tessdataPrefix may be empty to use the engine's default data directory.
func New(tessdataPrefix string) *Recognizer {
	return &Recognizer{tessdataPrefix: tessdataPrefix}
}

// Name returns "tesseract"
func (t *Recognizer) Name() string {
	return "tesseract"
}

type result struct {
	out *recognition.Output
	err error
}

// Recognize runs Tesseract on the region. The engine call cannot be
// interrupted, so a cancelled context returns immediately and the result of the
// running call is discarded once it completes.
func (t *Recognizer) Recognize(ctx context.Context, req recognition.Request) (*recognition.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := req.Image.PNG()
	if err != nil {
		return nil, err
	}

	done := make(chan result, 1)
	go func() {
		out, err := t.run(data, req)
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.out, r.err
	}
}

func (t *Recognizer) run(data []byte, req recognition.Request) (*recognition.Output, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			return nil, fmt.Errorf("setting tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(req.Languages, "+")...); err != nil {
		return nil, fmt.Errorf("setting language %q: %w", req.Languages, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(req.Mode)); err != nil {
		return nil, fmt.Errorf("setting page segmentation mode %d: %w", req.Mode, err)
	}
	spaces := "0"
	if req.PreserveSpaces {
		spaces = "1"
	}
	if err := client.SetVariable("preserve_interword_spaces", spaces); err != nil {
		return nil, fmt.Errorf("setting preserve_interword_spaces: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("setting image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("reading word confidences: %w", err)
	}
	words := make([]recognition.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, recognition.Word{Text: b.Word, Confidence: b.Confidence})
	}

	return &recognition.Output{Text: text, Words: words, Scale: recognition.ScalePercent}, nil
}

// Close is a no-op; a client is created per call
func (t *Recognizer) Close() error {
	return nil
}
