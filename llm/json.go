package llm

import (
	"encoding/json"
	"strings"

	"github.com/inscope-ai/ragcore/ragerr"
)

// ExtractJSON unmarshals the JSON object embedded in a completion into out.
// Handles ```json fences and surrounding prose by slicing from the first "{"
// to the last "}". A completion without a parsable object is a structured
// output failure.
func ExtractJSON(text string, out any) error {
	if strings.TrimSpace(text) == "" {
		return ragerr.Errorf(ragerr.KindStructuredOutput, "empty completion")
	}
	cleaned := text
	if idx := strings.Index(cleaned, "```json"); idx >= 0 {
		cleaned = cleaned[idx+len("```json"):]
		if end := strings.Index(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
	}
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return ragerr.Errorf(ragerr.KindStructuredOutput, "no JSON object in completion")
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err != nil {
		return ragerr.E(ragerr.KindStructuredOutput, err)
	}
	return nil
}
