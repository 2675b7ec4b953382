package openapi

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// jsonSchemaBaseURI anchors relative $id values during resolution.
const jsonSchemaBaseURI = "https://routedoc.invalid/schemas/"

// JSONSchemaValidator validates values with github.com/google/jsonschema-go.
// It follows the full JSON Schema 2020-12 semantics of that library but
// reports at most one mismatch per value, without a precise path.
type JSONSchemaValidator struct{}

// NewJSONSchemaValidator creates a JSONSchemaValidator.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{}
}

var _ Validator = (*JSONSchemaValidator)(nil)

// Validate implements Validator.
func (JSONSchemaValidator) Validate(schema *Schema, value any) []ErrorDetail {
	if schema == nil {
		return nil
	}

	js, err := toJSONSchema(schema)
	if err != nil {
		return []ErrorDetail{{Message: fmt.Sprintf("converting schema: %v", err)}}
	}
	resolved, err := js.Resolve(&jsonschema.ResolveOptions{BaseURI: jsonSchemaBaseURI})
	if err != nil {
		return []ErrorDetail{{Message: fmt.Sprintf("resolving schema: %v", err)}}
	}

	instance, err := normalizeJSON(value)
	if err != nil {
		return []ErrorDetail{{Message: fmt.Sprintf("value is not JSON-encodable: %v", err)}}
	}
	if err := resolved.Validate(instance); err != nil {
		return []ErrorDetail{{Message: err.Error()}}
	}
	return nil
}

// toJSONSchema converts a Schema through its JSON form. The OpenAPI 3.0
// "nullable" keyword is folded into the type list.
func toJSONSchema(s *Schema) (*jsonschema.Schema, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	stripOpenAPIKeywords(raw)

	data, err = json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	js := &jsonschema.Schema{}
	if err := json.Unmarshal(data, js); err != nil {
		return nil, err
	}
	return js, nil
}

// stripOpenAPIKeywords rewrites OpenAPI-only keywords of a schema object and
// its subschemas in place.
func stripOpenAPIKeywords(n map[string]any) {
	if nullable, ok := n["nullable"].(bool); ok {
		delete(n, "nullable")
		if nullable {
			switch t := n["type"].(type) {
			case string:
				n["type"] = []any{t, "null"}
			case []any:
				n["type"] = append(t, "null")
			}
		}
	}
	delete(n, "example")

	if props, ok := n["properties"].(map[string]any); ok {
		for _, p := range props {
			if sub, ok := p.(map[string]any); ok {
				stripOpenAPIKeywords(sub)
			}
		}
	}
	for _, key := range []string{"items", "additionalProperties", "not"} {
		if sub, ok := n[key].(map[string]any); ok {
			stripOpenAPIKeywords(sub)
		}
	}
	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		if list, ok := n[key].([]any); ok {
			for _, item := range list {
				if sub, ok := item.(map[string]any); ok {
					stripOpenAPIKeywords(sub)
				}
			}
		}
	}
}
