package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "extraction.json"

// replySchema describes a normalized model reply
var replySchema = map[string]any{
	"type":     "object",
	"required": []string{"results"},
	"properties": map[string]any{
		"results": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"term", "value", "confidence", "page"},
				"properties": map[string]any{
					"term":       map[string]any{"type": "string"},
					"value":      map[string]any{"type": "string"},
					"confidence": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
					"evidence":   map[string]any{"type": "string"},
					"page":       map[string]any{"type": "integer", "minimum": 1},
				},
			},
		},
	},
}

func compileSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(replySchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validate checks a JSON document against schema. Numbers are decoded as
// json.Number so integer constraints apply exactly.
func validate(schema *jsonschema.Schema, doc []byte) error {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
