package fields

import (
	"regexp"
	"strings"
	"unicode"
)

// SenderRule bounds the counterparty section of a receipt
type SenderRule struct {
	Start    []*regexp.Regexp
	End      []*regexp.Regexp
	MaxLines int
}

// Sender is the counterparty identity read from a section
type Sender struct {
	Name    string
	Phone   string
	Address string
	City    string
	State   string
	Zip     string
}

var (
	phoneRun     = regexp.MustCompile(`\+?\(?\d[\d\s().-]{8,}\d`)
	cityStateZip = regexp.MustCompile(`^(.+?),\s*([A-Za-z][A-Za-z .]*?)\.?\s+(\d{5})(?:-\d{4})?$`)
	streetWord   = regexp.MustCompile(`(?i)\b(st|street|ave|avenue|av|avenida|rd|road|blvd|boulevard|dr|drive|ln|lane|way|ct|court|pl|place|pkwy|parkway|hwy|highway|ter|terrace|cir|circle|apt|suite|ste|unit|calle|col|colonia)\b`)
	digit        = regexp.MustCompile(`\d`)
	namePrefix   = regexp.MustCompile(`(?i)^(nombre|name)\s*[:/-]?\s*`)
)

// stateCodes maps the long state names seen on receipts
var stateCodes = map[string]string{
	"new york":   "NY",
	"new jersey": "NJ",
	"california": "CA",
	"texas":      "TX",
}

// nameConnectors are single-letter tokens kept inside names
var nameConnectors = map[string]bool{"y": true, "e": true}

// Section returns up to maxLines lines after the first start label, stopping
// before the first end label. Text after the start label on its own line is
// kept as the first section line.
func (r SenderRule) Section(lines []string) []string {
	for i, line := range lines {
		loc := firstLabel(line, r.Start)
		if loc == nil {
			continue
		}
		var section []string
		if rest := strings.Trim(line[loc[1]:], " :-/|"); rest != "" && firstLabel(rest, r.Start) == nil {
			section = append(section, rest)
		}
		for j := i + 1; j < len(lines) && len(section) < r.MaxLines; j++ {
			if firstLabel(lines[j], r.End) != nil {
				break
			}
			section = append(section, lines[j])
		}
		return section
	}
	return nil
}

// ExtractSender reads a name, phone, street address and city/state/zip from the
// section bounded by rule
func ExtractSender(lines []string, rule SenderRule) (Sender, bool) {
	section := rule.Section(lines)
	var s Sender
	nameAt := -1
	for i, line := range section {
		if isPhone(line) || isStreetAddress(line) || digit.MatchString(line) {
			continue
		}
		if name := cleanName(line); letterCount(name) >= 5 {
			s.Name = name
			nameAt = i
			break
		}
	}
	if nameAt < 0 {
		return Sender{}, false
	}

	var street []string
	for _, line := range section[nameAt+1:] {
		switch {
		case s.Phone == "" && isPhone(line):
			s.Phone = formatPhone(line)
		case s.City == "" && cityStateZip.MatchString(line):
			m := cityStateZip.FindStringSubmatch(line)
			s.City = strings.TrimSpace(m[1])
			s.State = stateCode(m[2])
			s.Zip = m[3]
		case isStreetAddress(line):
			street = append(street, line)
		}
	}
	s.Address = strings.Join(street, ", ")
	return s, true
}

func isPhone(line string) bool {
	m := phoneRun.FindString(line)
	return m != "" && len(digitsOf(m)) >= 10
}

func isStreetAddress(line string) bool {
	return digit.MatchString(line) && streetWord.MatchString(line)
}

// formatPhone keeps the last ten digits as DDD-DDD-DDDD
func formatPhone(line string) string {
	d := digitsOf(phoneRun.FindString(line))
	d = d[len(d)-10:]
	return d[:3] + "-" + d[3:6] + "-" + d[6:]
}

func digitsOf(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func stateCode(state string) string {
	state = strings.TrimSpace(state)
	if code, ok := stateCodes[strings.ToLower(state)]; ok {
		return code
	}
	if len(state) == 2 {
		return strings.ToUpper(state)
	}
	return state
}

// cleanName keeps letters, drops single-letter tokens other than connectors
// and trims short trailing tokens
func cleanName(line string) string {
	line = namePrefix.ReplaceAllString(line, "")
	letters := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return ' '
	}, line)

	var tokens []string
	for _, tok := range strings.Fields(letters) {
		if len([]rune(tok)) == 1 && !nameConnectors[strings.ToLower(tok)] {
			continue
		}
		tokens = append(tokens, tok)
	}
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if len([]rune(last)) > 2 {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
