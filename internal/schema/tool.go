package schema

import "slices"

// Parameter types understood by tool validation. They match JSON Schema
// primitive type names.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// ParamSpec describes one tool parameter.
type ParamSpec struct {
	Type        string
	Description string
	Required    bool
	Enum        []string
	Default     any
}

// ToolSchema is the provider-facing description of a tool: everything but the
// handler.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]ParamSpec
}

// JSONSchema renders the parameters as a JSON Schema object. Required names
// are sorted so the output is stable.
func (s ToolSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Parameters))
	required := make([]string, 0)

	for name, p := range s.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = slices.Clone(p.Enum)
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[name] = prop
		if p.Required {
			required = append(required, name)
		}
	}
	slices.Sort(required)

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ToOpenAIFormat renders the schema in the OpenAI function-calling format.
func (s ToolSchema) ToOpenAIFormat() map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        s.Name,
			"description": s.Description,
			"parameters":  s.JSONSchema(),
		},
	}
}
