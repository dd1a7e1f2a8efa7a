package question

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// partitionSchema validates a question partition file before decoding.
// It accepts both title shapes and permits numeric chapter/standard codes;
// the normalization layer handles the coercion.
const partitionSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["part", "chapter", "standard", "keywords", "model_answer"],
		"properties": {
			"part": {"type": ["string", "number"]},
			"chapter": {"type": ["string", "number"]},
			"standard": {"type": ["string", "number"]},
			"question_title": {"type": "string"},
			"question_description": {"type": "string"},
			"question": {
				"type": "object",
				"required": ["title"],
				"properties": {
					"title": {"type": "string"},
					"description": {"type": "string"}
				}
			},
			"keywords": {"type": "array", "items": {"type": "string"}},
			"model_answer": {
				"anyOf": [
					{"type": "string"},
					{"type": "array", "items": {"type": "string"}}
				]
			},
			"explanation": {"type": "string"}
		},
		"anyOf": [
			{"required": ["question_title"]},
			{"required": ["question"]}
		]
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(partitionSchema)

// validatePartition checks a partition file's raw bytes against the schema.
func validatePartition(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("schema violations: %s", strings.Join(problems, "; "))
}
