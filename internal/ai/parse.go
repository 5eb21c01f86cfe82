package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*([\\[{].*?[\\]}])\\s*```")

// ExtractJSON pulls a JSON document out of a model response, tolerating
// markdown fences and surrounding prose. Attempts, in order: the whole
// response, a fenced ```json block, the widest bracketed span.
// Returns false when nothing parseable is found.
func ExtractJSON(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false
	}

	if json.Valid([]byte(text)) {
		return text, true
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if json.Valid([]byte(m[1])) {
			return m[1], true
		}
	}

	for _, pair := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start >= 0 && end > start {
			span := text[start : end+1]
			if json.Valid([]byte(span)) {
				return span, true
			}
		}
	}

	return "", false
}
