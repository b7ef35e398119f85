package reconcile

import (
	"fmt"
	"strings"
)

// Failure reasons reported by Gate
const (
	ReasonMissing       = "missing"
	ReasonLowConfidence = "low_confidence"
)

// Gate requires a set of fields to be present with a minimum confidence.
// A zero Gate checks nothing.
type Gate struct {
	MinConfidence float64  `json:"minConfidence"`
	Fields        []string `json:"fields"`
}

// Enabled reports whether the gate checks any field
func (g Gate) Enabled() bool {
	return len(g.Fields) > 0
}

// FieldFailure names one field that did not pass the gate
type FieldFailure struct {
	Field      string  `json:"field"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// GateError lists every field that failed the gate
type GateError struct {
	MinConfidence float64        `json:"minConfidence"`
	Failures      []FieldFailure `json:"failures"`
}

func (e *GateError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Reason == ReasonMissing {
			parts = append(parts, f.Field+" (missing)")
		} else {
			parts = append(parts, fmt.Sprintf("%s (confidence %.2f < %.2f)", f.Field, f.Confidence, e.MinConfidence))
		}
	}
	return "extraction failed validation: " + strings.Join(parts, ", ")
}

// Fields returns the names of the failed fields
func (e *GateError) Fields() []string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Field)
	}
	return names
}

// Check returns a *GateError when a gated field is missing or below MinConfidence
func (g Gate) Check(rec *Record) error {
	var failures []FieldFailure
	for _, name := range g.Fields {
		f := rec.Field(name)
		switch {
		case !f.Present():
			failures = append(failures, FieldFailure{Field: name, Reason: ReasonMissing})
		case f.Confidence < g.MinConfidence:
			failures = append(failures, FieldFailure{Field: name, Reason: ReasonLowConfidence, Confidence: f.Confidence})
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &GateError{MinConfidence: g.MinConfidence, Failures: failures}
}
