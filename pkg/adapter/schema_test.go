package adapter_test

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/startzen/pkg/adapter"
	"google.golang.org/genai"
)

func TestConvertDeckSchema(t *testing.T) {
	minSlides := 6
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"slides": {
				Type:     "array",
				MinItems: &minSlides,
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"type":         {Type: "string", Enum: []any{"title", "ask"}},
						"title":        {Type: "string", Description: "slide heading"},
						"content":      {Type: "string"},
						"bulletPoints": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
						"notes":        {Types: []string{"string", "null"}},
					},
					Required: []string{"title", "content", "type"},
				},
			},
		},
		Required: []string{"slides"},
	}

	converted, err := adapter.ConvertSchema(schema)
	gt.NoError(t, err)
	gt.Equal(t, converted.Type, genai.TypeObject)
	gt.Equal(t, converted.Required, []string{"slides"})
	gt.Equal(t, converted.PropertyOrdering, []string{"slides"})

	slides := converted.Properties["slides"]
	gt.V(t, slides).NotNil()
	gt.Equal(t, slides.Type, genai.TypeArray)
	gt.Equal(t, *slides.MinItems, int64(6))

	slide := slides.Items
	gt.Equal(t, slide.Type, genai.TypeObject)
	gt.Equal(t, slide.PropertyOrdering, []string{"title", "content", "type", "bulletPoints", "notes"})
	gt.Equal(t, slide.Properties["type"].Enum, []string{"title", "ask"})
	gt.Equal(t, slide.Properties["title"].Description, "slide heading")
	gt.Equal(t, slide.Properties["bulletPoints"].Items.Type, genai.TypeString)
	gt.Equal(t, slide.Properties["notes"].Type, genai.TypeString)
	gt.True(t, *slide.Properties["notes"].Nullable)
}

func TestConvertSchemaNil(t *testing.T) {
	converted, err := adapter.ConvertSchema(nil)
	gt.NoError(t, err)
	gt.V(t, converted).Nil()
}

func TestConvertSchemaUnsupported(t *testing.T) {
	_, err := adapter.ConvertSchema(&jsonschema.Schema{Type: "null"})
	gt.Error(t, err)

	_, err = adapter.ConvertSchema(&jsonschema.Schema{Type: "string", Enum: []any{1}})
	gt.Error(t, err)

	_, err = adapter.ConvertSchema(&jsonschema.Schema{Types: []string{"string", "integer"}})
	gt.Error(t, err)
}
