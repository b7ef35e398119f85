package fields

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	horizontalSpace = regexp.MustCompile(`[\t\f\v \p{Zs}]+`)
	spaceBeforeEOL  = regexp.MustCompile(` +\n`)
)

// Normalize strips accents, collapses horizontal whitespace, drops spaces
// before line breaks and trims the result. Line breaks are kept.
func Normalize(s string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		stripped = s
	}
	stripped = strings.ReplaceAll(stripped, "\r\n", "\n")
	stripped = horizontalSpace.ReplaceAllString(stripped, " ")
	stripped = spaceBeforeEOL.ReplaceAllString(stripped, "\n")
	return strings.TrimSpace(stripped)
}

// Lines normalizes s and returns its non-empty trimmed lines
func Lines(s string) []string {
	var out []string
	for _, line := range strings.Split(Normalize(s), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// NormalizeAmount parses a printed amount.
// Everything but digits, '.', ',' and '-' is dropped. With both separators the
// last one is the decimal mark. A lone ',' is the decimal mark only when exactly
// two digits follow the last one. It reports false when nothing numeric remains.
func NormalizeAmount(raw string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	num := cleaned
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			num = strings.ReplaceAll(cleaned, ".", "")
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if len(cleaned)-lastComma-1 == 2 {
			num = strings.ReplaceAll(cleaned[:lastComma], ",", "") + "." + cleaned[lastComma+1:]
		} else {
			num = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
