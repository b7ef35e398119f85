package fields

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/zombor/receipt-extract/internal/reconcile"
)

// ErrUnknownTemplate is returned for template keys that are not registered
var ErrUnknownTemplate = errors.New("unknown template")

// Kind selects how a rule reads its value
type Kind string

const (
	KindAmount Kind = "amount"
	KindRate   Kind = "rate"
	KindDate   Kind = "date"
	KindCode   Kind = "code"
	KindText   Kind = "text"
)

// FieldRule locates one field by label
type FieldRule struct {
	Field      string
	Labels     []*regexp.Regexp
	Lookahead  int
	Kind       Kind
	AfterLabel bool           // search only after the label on the label line
	Value      *regexp.Regexp // overrides the template's matcher for Kind
	Confidence float64
}

// SenderConfidence holds the confidences given to sender fields
type SenderConfidence struct {
	Name    float64
	Phone   float64
	Address float64
	City    float64
}

// Template is a hand-written extraction recipe. Templates are plain data;
// the extractor never special-cases a template key.
type Template struct {
	Key         string
	Description string
	// Hints score how well a text fits the template
	Hints []*regexp.Regexp
	Rules []FieldRule
	// Dates are tried over the whole text when no date rule matched
	Dates []DatePattern
	// Amount captures the amount in group 1
	Amount *regexp.Regexp
	// Reference is searched over the whole text when no reference rule matched
	Reference           *regexp.Regexp
	ReferenceConfidence float64
	Sender              *SenderRule
	SenderConfidence    SenderConfidence
	// Reconcile enables the accounting identity check
	Reconcile bool
}

// Registry holds templates by key
type Registry struct {
	mu         sync.RWMutex
	templates  map[string]*Template
	defaultKey string
}

// NewRegistry creates a Registry. The first template is the default.
func NewRegistry(templates ...*Template) *Registry {
	r := &Registry{templates: map[string]*Template{}}
	for _, t := range templates {
		r.Register(t)
	}
	return r
}

// DefaultRegistry returns the built-in money_transfer and store_receipt templates
func DefaultRegistry() *Registry {
	return NewRegistry(MoneyTransfer(), StoreReceipt())
}

// Register adds or replaces a template
func (r *Registry) Register(t *Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defaultKey == "" {
		r.defaultKey = t.Key
	}
	r.templates[t.Key] = t
}

// Get returns the template for key; an empty key returns the default
func (r *Registry) Get(key string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if key == "" {
		key = r.defaultKey
	}
	t, ok := r.templates[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, key)
	}
	return t, nil
}

// Keys returns the registered keys in sorted order
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.templates))
	for k := range r.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Templates returns the registered templates sorted by key
func (r *Registry) Templates() []*Template {
	keys := r.Keys()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Template, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.templates[k])
	}
	return out
}

// Detect returns the key of the template whose hints match the most lines of
// text. Ties and texts without any hit go to the default template.
func (r *Registry) Detect(text string) string {
	lines := Lines(text)
	r.mu.RLock()
	defer r.mu.RUnlock()

	best, bestScore := r.defaultKey, 0
	keys := make([]string, 0, len(r.templates))
	for k := range r.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		score := 0
		for _, line := range lines {
			if firstLabel(line, r.templates[k].Hints) != nil {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	return best
}

// Extract reads every field the template knows from text.
// Fields that are not found are left out of the record.
func Extract(text string, t *Template) *reconcile.Record {
	rec := reconcile.NewRecord(t.Key)
	normalized := Normalize(text)
	lines := Lines(normalized)

	for _, rule := range t.Rules {
		if rec.Field(rule.Field).Present() {
			continue
		}
		m, ok := FindByLabel(lines, rule.Labels, rule.Lookahead, rule.AfterLabel, t.matcher(rule))
		if !ok {
			continue
		}
		rec.Fields[rule.Field] = &reconcile.Field{
			Value:      m.Value,
			Raw:        m.Raw,
			Source:     reconcile.SourceLabel,
			Confidence: rule.Confidence,
		}
	}

	if !rec.Field(reconcile.FieldDate).Present() {
		if d, ok := FindDate(normalized, t.Dates); ok {
			rec.Fields[reconcile.FieldDate] = &reconcile.Field{
				Value:      d.ISO,
				Raw:        d.Raw,
				Source:     reconcile.SourcePattern,
				Confidence: d.Confidence,
			}
		}
	}

	if !rec.Field(reconcile.FieldReference).Present() && t.Reference != nil {
		if raw := t.Reference.FindString(normalized); raw != "" {
			rec.Fields[reconcile.FieldReference] = &reconcile.Field{
				Value:      collapse(raw),
				Raw:        raw,
				Source:     reconcile.SourcePattern,
				Confidence: t.ReferenceConfidence,
			}
		}
	}

	if t.Sender != nil {
		if s, ok := ExtractSender(lines, *t.Sender); ok {
			c := t.SenderConfidence
			setText(rec, reconcile.FieldSenderName, s.Name, c.Name)
			setText(rec, reconcile.FieldSenderPhone, s.Phone, c.Phone)
			setText(rec, reconcile.FieldSenderAddress, s.Address, c.Address)
			setText(rec, reconcile.FieldSenderCity, s.City, c.City)
			setText(rec, reconcile.FieldSenderState, s.State, c.City)
			setText(rec, reconcile.FieldSenderZip, s.Zip, c.City)
		}
	}

	rec.UpdateOverall()
	return rec
}

var (
	defaultAmount = regexp.MustCompile(`(?i)(?:USD|US\$|\$)?\s*([0-9]{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})|\d+(?:[.,]\d{2}))`)
	defaultRate   = regexp.MustCompile(`([0-9]+(?:[.,][0-9]{1,4})?)`)
	defaultCode   = regexp.MustCompile(`\b([A-Z0-9][A-Z0-9-]{3,})\b`)
)

func (t *Template) matcher(rule FieldRule) Matcher {
	switch rule.Kind {
	case KindDate:
		return DateMatcher(t.Dates)
	case KindCode:
		return CodeMatcher(orDefault(rule.Value, defaultCode))
	case KindText:
		return TextMatcher
	case KindRate:
		return AmountMatcher(orDefault(rule.Value, defaultRate))
	default:
		return AmountMatcher(orDefault(rule.Value, orDefault(t.Amount, defaultAmount)))
	}
}

func orDefault(rx, fallback *regexp.Regexp) *regexp.Regexp {
	if rx != nil {
		return rx
	}
	return fallback
}

func setText(rec *reconcile.Record, name, value string, confidence float64) {
	if value == "" {
		return
	}
	rec.Fields[name] = &reconcile.Field{Value: value, Raw: value, Source: reconcile.SourceSection, Confidence: confidence}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
