package adapter

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/firestore"
	"github.com/google/jsonschema-go/jsonschema"
)

// Embedder maps arbitrary text to a fixed-length vector. Implementations
// must return an error on failure, never a zero vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (firestore.Vector32, error)
}

// Classifier sends a prompt to an LLM and returns JSON constrained by the
// given schema. Transport failures are returned as errors; callers validate
// the JSON against the schema and downgrade violations to empty results.
type Classifier interface {
	Classify(ctx context.Context, prompt string, schema *jsonschema.Schema) (json.RawMessage, error)
}
