package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// CleanJSON extracts a JSON object from model output that may contain
// markdown code fences or prose around the payload.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// RepairParse unmarshals model output into out, first as-is and then after
// fence stripping and brace location. Failure after repair is a hard error,
// never silently coerced to zero values.
func RepairParse(text string, out any) error {
	trimmed := strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}

	cleaned := CleanJSON(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return eris.Wrapf(err, "anthropic: response not parseable after repair (len=%d)", len(text))
	}
	return nil
}
