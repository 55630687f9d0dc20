package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

var jsonTypes = map[domain.ParamType]string{
	domain.TypeString:  "string",
	domain.TypeInteger: "integer",
	domain.TypeFloat:   "number",
	domain.TypeBoolean: "boolean",
	domain.TypeEnum:    "string",
}

// InputSchema renders params as a JSON Schema object, the shape tool-calling
// agents (MCP, function calling) expect for a tool's arguments.
func InputSchema(params []domain.Param) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	for _, p := range params {
		prop := &jsonschema.Schema{
			Type:        jsonTypes[p.Type],
			Description: p.Description,
		}
		if p.Type == domain.TypeEnum {
			for _, opt := range p.Options {
				prop.Enum = append(prop.Enum, opt)
			}
		}
		if hasDefault(p) {
			prop.Default = p.Default
		}
		s.Properties.Set(p.Name, prop)
		if p.Required && !hasDefault(p) {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

// MarshalInputSchema renders params as raw JSON Schema bytes.
func MarshalInputSchema(params []domain.Param) (json.RawMessage, error) {
	return json.Marshal(InputSchema(params))
}

// Reflect derives a JSON Schema from a Go struct, used for built-in control tools.
func Reflect(v any) *jsonschema.Schema {
	r := jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(v)
	s.Version = ""
	return s
}
