package fields

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateOrder says which capture group holds which date part
type DateOrder int

const (
	// OrderMDY captures month, day, year
	OrderMDY DateOrder = iota
	// OrderDMY captures day, month, year
	OrderDMY
	// OrderYMD captures year, month, day
	OrderYMD
	// OrderMonthDY captures a month name, day, year
	OrderMonthDY
	// OrderDMonthY captures day, a month name, year
	OrderDMonthY
)

// DatePattern is one date format a template recognizes
type DatePattern struct {
	Regexp     *regexp.Regexp
	Order      DateOrder
	Months     map[string]int // month-name prefixes for the name orders
	Confidence float64
}

// EnglishMonths maps three-letter English month prefixes
var EnglishMonths = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// SpanishMonths maps three-letter Spanish month prefixes
var SpanishMonths = map[string]int{
	"ene": 1, "feb": 2, "mar": 3, "abr": 4, "may": 5, "jun": 6,
	"jul": 7, "ago": 8, "sep": 9, "oct": 10, "nov": 11, "dic": 12,
}

// DateMatch is a date found in text
type DateMatch struct {
	ISO        string
	Raw        string
	Confidence float64
}

// FindDate tries each pattern in order over text and returns the first valid date.
// Every match of a pattern is tried before moving on to the next pattern.
func FindDate(text string, patterns []DatePattern) (DateMatch, bool) {
	for _, p := range patterns {
		for _, m := range p.Regexp.FindAllStringSubmatch(text, -1) {
			if iso, ok := p.iso(m); ok {
				return DateMatch{ISO: iso, Raw: m[0], Confidence: p.Confidence}, true
			}
		}
	}
	return DateMatch{}, false
}

func (p DatePattern) iso(m []string) (string, bool) {
	if len(m) < 4 {
		return "", false
	}
	var ys, ms, ds string
	switch p.Order {
	case OrderMDY:
		ms, ds, ys = m[1], m[2], m[3]
	case OrderDMY:
		ds, ms, ys = m[1], m[2], m[3]
	case OrderYMD:
		ys, ms, ds = m[1], m[2], m[3]
	case OrderMonthDY:
		ms, ds, ys = p.monthNumber(m[1]), m[2], m[3]
	case OrderDMonthY:
		ds, ms, ys = m[1], p.monthNumber(m[2]), m[3]
	}

	year, err1 := strconv.Atoi(ys)
	month, err2 := strconv.Atoi(ms)
	day, err3 := strconv.Atoi(ds)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if len(ys) == 2 {
		year += 2000
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func (p DatePattern) monthNumber(name string) string {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return ""
	}
	if n, ok := p.Months[name[:3]]; ok {
		return strconv.Itoa(n)
	}
	return ""
}

// transferDates are tried in order on money-transfer receipts
var transferDates = []DatePattern{
	{
		Regexp:     regexp.MustCompile(`(?i)\b(0?[1-9]|1[0-2])/([0-2]?\d|3[01])/(\d{4})(?:\s+\d{1,2}:\d{2}\s*(?:AM|PM))?\b`),
		Order:      OrderMDY,
		Confidence: 0.9,
	},
	{
		Regexp:     regexp.MustCompile(`\b([A-Za-z]{3,})\.?\s+([0-3]?\d),?\s+(\d{4})\b`),
		Order:      OrderMonthDY,
		Months:     EnglishMonths,
		Confidence: 0.85,
	},
}

// storeDates are tried in order on store receipts
var storeDates = []DatePattern{
	{
		Regexp:     regexp.MustCompile(`\b([0-3]?\d)[/.-]([01]?\d)[/.-](\d{4}|\d{2})\b`),
		Order:      OrderDMY,
		Confidence: 0.85,
	},
	{
		Regexp:     regexp.MustCompile(`\b(\d{4})[/.-]([01]\d)[/.-]([0-3]\d)\b`),
		Order:      OrderYMD,
		Confidence: 0.9,
	},
	{
		Regexp:     regexp.MustCompile(`(?i)\b([0-3]?\d)\s+(ene|feb|mar|abr|may|jun|jul|ago|sep|oct|nov|dic)\w*\.?\s+(\d{4}|\d{2})\b`),
		Order:      OrderDMonthY,
		Months:     SpanishMonths,
		Confidence: 0.8,
	},
}
