package tool

import (
	"context"
)

// Type represents JSON Schema types.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Tool is a capability the model may invoke.
// Implementations must be safe for concurrent use and keep no per-call state.
type Tool interface {
	// Name returns the unique identifier the model uses to call the tool.
	Name() string

	// Description is shown to the model.
	Description() string

	// Parameters lists the accepted arguments, in declaration order.
	Parameters() []Parameter

	// Execute runs the tool with the raw JSON argument payload and returns
	// model-readable text. Failures are returned as errors so the caller can
	// report them back to the model.
	Execute(ctx context.Context, arguments string) (string, error)
}

// Parameter describes one tool argument.
type Parameter struct {
	Name        string
	Type        Type
	Description string
	Required    bool
	Enum        []string

	// Items describes array elements. Defaults to string when nil.
	Items *Parameter

	// Properties describes the fields of an object-typed parameter.
	Properties []Parameter
}

// Schema represents a JSON Schema for tool parameters.
type Schema struct {
	Type                 Type               `json:"type"`
	Description          string             `json:"description,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
}

// Declaration declares a tool's function signature for the model.
type Declaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	InputSchema *Schema `json:"input_schema"`
}

// Declare renders a tool into its provider-facing declaration.
func Declare(t Tool) Declaration {
	return Declaration{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: ObjectSchema("", t.Parameters()),
	}
}

// ObjectSchema builds a closed object schema: additionalProperties is false
// here and on every nested object, and required lists the required fields.
func ObjectSchema(description string, params []Parameter) *Schema {
	closed := false
	s := &Schema{
		Type:                 TypeObject,
		Description:          description,
		Properties:           make(map[string]*Schema, len(params)),
		AdditionalProperties: &closed,
	}
	for _, p := range params {
		s.Properties[p.Name] = p.schema()
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

func (p Parameter) schema() *Schema {
	switch p.Type {
	case TypeObject:
		return ObjectSchema(p.Description, p.Properties)
	case TypeArray:
		items := Parameter{Type: TypeString}
		if p.Items != nil {
			items = *p.Items
		}
		return &Schema{
			Type:        TypeArray,
			Description: p.Description,
			Items:       items.schema(),
		}
	default:
		return &Schema{
			Type:        p.Type,
			Description: p.Description,
			Enum:        p.Enum,
		}
	}
}
