package adapter

import (
	"slices"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

var genaiTypes = map[string]genai.Type{
	"object":  genai.TypeObject,
	"array":   genai.TypeArray,
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
}

// ConvertSchema translates a JSON Schema into the response schema accepted by Gemini.
// A union with "null" becomes a nullable schema; other unions are rejected.
func ConvertSchema(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	out := &genai.Schema{
		Title:       schema.Title,
		Description: schema.Description,
		Format:      schema.Format,
	}

	typeName, nullable, err := schemaType(schema)
	if err != nil {
		return nil, err
	}
	if typeName != "" {
		t, ok := genaiTypes[typeName]
		if !ok {
			return nil, goerr.New("unsupported schema type", goerr.V("type", typeName))
		}
		out.Type = t
	}
	if nullable {
		out.Nullable = genai.Ptr(true)
	}

	for _, v := range schema.Enum {
		s, ok := v.(string)
		if !ok {
			return nil, goerr.New("only string enum is supported", goerr.V("value", v))
		}
		out.Enum = append(out.Enum, s)
	}

	if schema.MinItems != nil {
		out.MinItems = genai.Ptr(int64(*schema.MinItems))
	}
	if schema.MaxItems != nil {
		out.MaxItems = genai.Ptr(int64(*schema.MaxItems))
	}

	if schema.Items != nil {
		if out.Items, err = ConvertSchema(schema.Items); err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
	}

	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for name, prop := range schema.Properties {
			converted, err := ConvertSchema(prop)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema", goerr.V("property", name))
			}
			out.Properties[name] = converted
		}
		out.PropertyOrdering = propertyOrder(schema)
	}

	if len(schema.Required) > 0 {
		out.Required = slices.Clone(schema.Required)
	}

	return out, nil
}

func schemaType(schema *jsonschema.Schema) (string, bool, error) {
	if len(schema.Types) == 0 {
		return schema.Type, false, nil
	}

	var (
		name     string
		nullable bool
	)
	for _, t := range schema.Types {
		switch {
		case t == "null":
			nullable = true
		case name == "":
			name = t
		default:
			return "", false, goerr.New("multiple non-null types are not supported", goerr.V("types", schema.Types))
		}
	}
	return name, nullable, nil
}

// propertyOrder lists required properties in declared order followed by the rest by name.
// Gemini generates fields in this order.
func propertyOrder(schema *jsonschema.Schema) []string {
	order := make([]string, 0, len(schema.Properties))
	for _, name := range schema.Required {
		if _, ok := schema.Properties[name]; ok && !slices.Contains(order, name) {
			order = append(order, name)
		}
	}

	var rest []string
	for name := range schema.Properties {
		if !slices.Contains(order, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
