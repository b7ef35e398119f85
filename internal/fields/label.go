package fields

import (
	"regexp"
	"strings"
)

// Match is a value found in text
type Match struct {
	Value any
	Raw   string
	Line  int
}

// Matcher looks for a value in one line
type Matcher func(line string) (value any, raw string, ok bool)

// FindByLabel scans lines for one matching any label and searches that line and
// up to lookahead following lines with match. The first hit wins. When
// afterLabel is set only the text after the label is searched on the label line.
func FindByLabel(lines []string, labels []*regexp.Regexp, lookahead int, afterLabel bool, match Matcher) (Match, bool) {
	for i, line := range lines {
		loc := firstLabel(line, labels)
		if loc == nil {
			continue
		}
		last := min(i+lookahead, len(lines)-1)
		for j := i; j <= last; j++ {
			candidate := lines[j]
			if j == i && afterLabel {
				candidate = line[loc[1]:]
			}
			if value, raw, ok := match(candidate); ok {
				return Match{Value: value, Raw: raw, Line: i}, true
			}
		}
	}
	return Match{}, false
}

func firstLabel(line string, labels []*regexp.Regexp) []int {
	for _, rx := range labels {
		if loc := rx.FindStringIndex(line); loc != nil {
			return loc
		}
	}
	return nil
}

// AmountMatcher reads the first capture group of rx as an amount
func AmountMatcher(rx *regexp.Regexp) Matcher {
	return func(line string) (any, string, bool) {
		m := rx.FindStringSubmatch(line)
		if m == nil {
			return nil, "", false
		}
		value := m[0]
		if len(m) > 1 {
			value = m[1]
		}
		v, ok := NormalizeAmount(value)
		if !ok {
			return nil, "", false
		}
		return v, strings.TrimSpace(m[0]), true
	}
}

// CodeMatcher reads the first capture group of rx as a code, collapsing whitespace
func CodeMatcher(rx *regexp.Regexp) Matcher {
	return func(line string) (any, string, bool) {
		m := rx.FindStringSubmatch(line)
		if m == nil {
			return nil, "", false
		}
		value := m[0]
		if len(m) > 1 {
			value = m[1]
		}
		return strings.Join(strings.Fields(value), " "), m[0], true
	}
}

// DateMatcher reads a date with the given patterns
func DateMatcher(patterns []DatePattern) Matcher {
	return func(line string) (any, string, bool) {
		d, ok := FindDate(line, patterns)
		if !ok {
			return nil, "", false
		}
		return d.ISO, d.Raw, true
	}
}

// TextMatcher takes the remaining text of a line, stripped of separators
func TextMatcher(line string) (any, string, bool) {
	text := strings.Trim(line, " :-/#|")
	if len([]rune(text)) < 3 {
		return nil, "", false
	}
	return text, line, true
}
