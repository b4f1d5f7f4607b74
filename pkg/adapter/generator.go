package adapter

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Generator is the structured-object generation capability of the remote platform.
// It returns the raw JSON document produced for the given prompt and schema.
type Generator interface {
	GenerateObject(ctx context.Context, prompt string, schema *jsonschema.Schema) ([]byte, error)
}
