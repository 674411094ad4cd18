package studyai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Tarunjit45/ExamGenius/internal/ai"
)

// schema is a JSON Schema sent to the model and enforced on its answer.
type schema struct {
	raw      json.RawMessage
	compiled *gojsonschema.Schema
}

func mustSchema(src string) *schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile response schema: %v", err))
	}
	return &schema{raw: json.RawMessage(src), compiled: compiled}
}

var topicsSchema = mustSchema(`{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "subject": {"type": "string"},
      "topics": {"type": "array", "items": {"type": "string"}}
    },
    "required": ["subject", "topics"]
  }
}`)

var planSchema = mustSchema(`{
  "type": "object",
  "properties": {
    "days": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "day": {"type": "integer"},
          "missions": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "subject": {"type": "string"},
                "topic": {"type": "string"}
              },
              "required": ["subject", "topic"]
            }
          }
        },
        "required": ["day", "missions"]
      }
    }
  },
  "required": ["days"]
}`)

var quizSchema = mustSchema(`{
  "type": "array",
  "minItems": 4,
  "maxItems": 4,
  "items": {
    "type": "object",
    "properties": {
      "question": {"type": "string"},
      "options": {
        "type": "array",
        "items": {"type": "string"},
        "minItems": 4,
        "maxItems": 4,
        "uniqueItems": true
      },
      "correctAnswer": {"type": "string"}
    },
    "required": ["question", "options", "correctAnswer"]
  }
}`)

// decode pulls the JSON value out of raw model output, validates it against
// the schema and unmarshals it into v. All failures wrap ai.ErrInvalidOutput.
func (s *schema) decode(raw string, v any) error {
	doc, err := ai.ExtractJSON(raw)
	if err != nil {
		return err
	}

	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ai.ErrInvalidOutput, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			details = append(details, re.String())
		}
		return fmt.Errorf("%w: %s", ai.ErrInvalidOutput, strings.Join(details, "; "))
	}

	if err := json.Unmarshal(doc, v); err != nil {
		return fmt.Errorf("%w: %v", ai.ErrInvalidOutput, err)
	}
	return nil
}
