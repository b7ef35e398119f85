package pipeline

import (
	"strings"
)

// DedupeLines trims every line, drops empty ones and drops any line whose
// whitespace-collapsed lower-case form was already seen. Order is kept.
func DedupeLines(s string) string {
	seen := make(map[string]struct{})
	var out []string
	for _, raw := range strings.Split(s, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		key := strings.ToLower(strings.Join(strings.Fields(line), " "))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Assemble joins band texts top to bottom and removes duplicate lines.
// The confidence is the mean over bands that did not fail.
func Assemble(bands []BandResult) (string, float64) {
	var texts []string
	var sum float64
	var n int
	for _, b := range bands {
		if b.Failed() {
			continue
		}
		sum += b.MeanConfidence
		n++
		if t := strings.TrimSpace(b.Text); t != "" {
			texts = append(texts, t)
		}
	}
	mean := 0.0
	if n > 0 {
		mean = sum / float64(n)
	}
	return DedupeLines(strings.Join(texts, "\n")), mean
}
