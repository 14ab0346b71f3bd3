package llmextract

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema constrains the model reply before repair. Optional fields
// are loose on purpose; repair fills them in.
const responseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["sections"],
  "properties": {
    "document_id": {"type": ["string", "null"]},
    "document_type": {"type": ["string", "null"]},
    "jurisdiction": {"type": ["object", "null"]},
    "sections": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["section_text"],
        "properties": {
          "section_id": {"type": ["string", "null"]},
          "section_num": {"type": ["string", "number", "null"]},
          "section_title": {"type": ["string", "null"]},
          "section_text": {"type": "string"},
          "section_refs": {
            "type": ["array", "null"],
            "items": {"type": ["string", "number"]}
          }
        }
      }
    }
  }
}`

const schemaURL = "normalized_document.json"

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(responseSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
