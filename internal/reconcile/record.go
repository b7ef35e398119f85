package reconcile

import (
	"math"
	"sort"
)

// Source tags where a field value came from
type Source string

const (
	SourceLabel    Source = "label"
	SourcePattern  Source = "pattern"
	SourceSection  Source = "section"
	SourceInferred Source = "inferred"
	SourceAdjusted Source = "adjusted"
)

// Field names shared by extraction and reconciliation
const (
	FieldDate          = "date"
	FieldReference     = "reference"
	FieldStore         = "store"
	FieldAmount        = "amount"
	FieldFees          = "fees"
	FieldOther         = "other"
	FieldTaxes         = "taxes"
	FieldDiscount      = "discount"
	FieldTotalDue      = "totalDue"
	FieldRecipient     = "recipient"
	FieldExchangeRate  = "exchangeRate"
	FieldSenderName    = "senderName"
	FieldSenderPhone   = "senderPhone"
	FieldSenderAddress = "senderAddress"
	FieldSenderCity    = "senderCity"
	FieldSenderState   = "senderState"
	FieldSenderZip     = "senderZip"
)

// Field is one extracted datum. Value holds a float64 for amounts and a
// string for dates, codes and identity fields.
type Field struct {
	Value      any     `json:"value"`
	Raw        string  `json:"raw,omitempty"`
	Source     Source  `json:"source"`
	Confidence float64 `json:"confidence"`
	// Reconciled is set once the accounting boost has been applied
	Reconciled bool `json:"reconciled,omitempty"`
}

// Number returns the value as a float64 when it is one
func (f *Field) Number() (float64, bool) {
	if f == nil {
		return 0, false
	}
	v, ok := f.Value.(float64)
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Present reports whether the field holds a value
func (f *Field) Present() bool {
	return f != nil && f.Value != nil
}

// Record is the structured result of field extraction.
// Records are treated as values: every change produces a new record.
type Record struct {
	Template string            `json:"template"`
	Fields   map[string]*Field `json:"fields"`
	Issues   []string          `json:"issues"`
	Overall  float64           `json:"overall"`
}

// NewRecord creates an empty record for template
func NewRecord(template string) *Record {
	return &Record{Template: template, Fields: map[string]*Field{}, Issues: []string{}}
}

// Clone deep-copies the record
func (r *Record) Clone() *Record {
	out := &Record{
		Template: r.Template,
		Fields:   make(map[string]*Field, len(r.Fields)),
		Issues:   append([]string{}, r.Issues...),
		Overall:  r.Overall,
	}
	for k, f := range r.Fields {
		if f == nil {
			out.Fields[k] = nil
			continue
		}
		cp := *f
		out.Fields[k] = &cp
	}
	return out
}

// Field returns the named field or nil
func (r *Record) Field(name string) *Field {
	return r.Fields[name]
}

// Number returns the named field's numeric value
func (r *Record) Number(name string) (float64, bool) {
	return r.Fields[name].Number()
}

// Names returns the populated field names in sorted order
func (r *Record) Names() []string {
	names := make([]string, 0, len(r.Fields))
	for k, f := range r.Fields {
		if f.Present() {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// UpdateOverall sets Overall to the mean confidence of populated fields,
// summed in name order so the result does not depend on map iteration
func (r *Record) UpdateOverall() {
	names := r.Names()
	sum := 0.0
	for _, name := range names {
		sum += r.Fields[name].Confidence
	}
	r.Overall = 0
	if len(names) > 0 {
		r.Overall = sum / float64(len(names))
	}
}

// addIssue appends msg unless it is already logged and reports whether it was added
func (r *Record) addIssue(msg string) bool {
	for _, existing := range r.Issues {
		if existing == msg {
			return false
		}
	}
	r.Issues = append(r.Issues, msg)
	return true
}
