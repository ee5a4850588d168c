package feedback

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// CompletionFeedback is the JSON object a completion provider is asked to
// produce. Tone is not part of it; the service derives tone from the score.
type CompletionFeedback struct {
	MainMessage    string   `json:"main_message"`
	Strengths      []string `json:"strengths"`
	AreasToImprove []string `json:"areas_to_improve"`
	SpecificTip    string   `json:"specific_tip"`
	Celebration    *string  `json:"celebration"`
	Encouragement  string   `json:"encouragement"`
}

const completionSchemaURL = "schema://completion-feedback.json"

const completionSchema = `{
  "type": "object",
  "required": ["main_message", "strengths", "areas_to_improve", "specific_tip", "encouragement"],
  "properties": {
    "main_message": {"type": "string", "minLength": 1},
    "strengths": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
    "areas_to_improve": {"type": "array", "items": {"type": "string"}},
    "specific_tip": {"type": "string", "minLength": 1},
    "celebration": {"type": ["string", "null"]},
    "encouragement": {"type": "string", "minLength": 1}
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(completionSchema))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(completionSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile(completionSchemaURL)
})

// IsValidCompletion reports whether ParseCompletion accepts text.
func IsValidCompletion(text string) bool {
	_, err := ParseCompletion(text)
	return err == nil
}

// ParseCompletion extracts the feedback object from raw completion text.
// Markdown fences and trailing chatter are tolerated. If the cleaned text is
// not valid JSON, the first brace-balanced object anywhere in the raw text
// is tried before giving up. All failures are *models.GenerationError.
func ParseCompletion(text string) (CompletionFeedback, error) {
	clean := cleanCompletion(text)

	doc, err := decodeJSON(clean)
	if err != nil {
		obj, ok := firstObject(text)
		if !ok {
			return CompletionFeedback{}, invalidJSON(err)
		}
		if doc, err = decodeJSON(obj); err != nil {
			return CompletionFeedback{}, invalidJSON(err)
		}
		clean = obj
	}

	schema, err := compiledSchema()
	if err != nil {
		return CompletionFeedback{}, &models.GenerationError{FinishReason: "parse", Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return CompletionFeedback{}, &models.GenerationError{
			FinishReason: "parse",
			Err:          fmt.Errorf("schema validation failed: %w", err),
		}
	}

	var out CompletionFeedback
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return CompletionFeedback{}, &models.GenerationError{FinishReason: "parse", Err: err}
	}
	if out.AreasToImprove == nil {
		out.AreasToImprove = []string{}
	}
	return out, nil
}

// cleanCompletion strips code fences and anything after the first complete
// top-level object.
func cleanCompletion(text string) string {
	clean := strings.TrimSpace(text)

	if i := strings.Index(clean, "```json"); i >= 0 {
		rest := clean[i+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		clean = strings.TrimSpace(rest)
	} else if strings.Contains(clean, "```") {
		clean = strings.TrimSpace(strings.ReplaceAll(clean, "```", ""))
	}

	if strings.HasPrefix(clean, "{") {
		if end := matchingBrace(clean, 0); end > 0 {
			clean = clean[:end]
		}
	}
	return clean
}

// firstObject returns the brace-balanced object starting at the first "{".
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	end := matchingBrace(text, start)
	if end < 0 {
		return "", false
	}
	return text[start:end], true
}

// matchingBrace returns the index just past the brace closing the one at
// start, or -1 when the braces never balance. Braces inside string values
// are counted too.
func matchingBrace(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func decodeJSON(s string) (any, error) {
	return jsonschema.UnmarshalJSON(strings.NewReader(s))
}

func invalidJSON(err error) error {
	return &models.GenerationError{
		FinishReason: "parse",
		Err:          fmt.Errorf("completion is not valid JSON: %w", err),
	}
}
