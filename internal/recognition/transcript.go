package recognition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// transcribePrompt asks a vision model for a verbatim transcription of one region
const transcribePrompt = `You are reading one horizontal strip cut from a photographed money-transfer receipt.
Transcribe every piece of printed text in the image exactly as it appears, line by line, top to bottom.

Rules:
- Do not translate, summarize, correct spelling or reorder anything
- Keep numbers, currency symbols, separators and dates exactly as printed
- Keep one output line per printed line
- If the strip contains no readable text, return an empty string
- Expected languages: %s

Return ONLY valid JSON in this exact format:
{
  "text": "line one\nline two",
  "confidence": 0.0
}

"confidence" is your own estimate between 0 and 1 of how faithful the transcription is.
Do not include any text before or after the JSON. Do not use markdown code blocks.`

// languageNames spells out Tesseract language codes for prompts
var languageNames = map[string]string{
	"eng": "English",
	"spa": "Spanish",
	"por": "Portuguese",
	"fra": "French",
}

func promptFor(req Request) string {
	var names []string
	for _, code := range strings.Split(req.Languages, "+") {
		if name, ok := languageNames[code]; ok {
			names = append(names, name)
		} else if code != "" {
			names = append(names, code)
		}
	}
	return fmt.Sprintf(transcribePrompt, strings.Join(names, ", "))
}

type transcript struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

// parseTranscript pulls the JSON object out of a model reply
func parseTranscript(text string) (*Output, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	var t transcript
	if err := json.Unmarshal([]byte(text[startIdx:endIdx+1]), &t); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	out := &Output{Text: t.Text, Scale: ScaleUnit}
	if t.Confidence != nil {
		c := *t.Confidence
		// some models answer in percent regardless of the prompt
		if c > 1 {
			out.Scale = ScalePercent
		}
		out.Confidence = &c
	}
	return out, nil
}
