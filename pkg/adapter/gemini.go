package adapter

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
	callTimeout     time.Duration
	maxTries        uint
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

func WithCallTimeout(d time.Duration) GeminiOption {
	return func(g *GeminiClient) {
		g.callTimeout = d
	}
}

func WithMaxTries(n uint) GeminiOption {
	return func(g *GeminiClient) {
		g.maxTries = n
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
		callTimeout:     60 * time.Second,
		maxTries:        3,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Embed generates an embedding vector for the given text.
func (g *GeminiClient) Embed(ctx context.Context, text string) (firestore.Vector32, error) {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	resp, err := backoff.Retry(ctx, func() (*genai.EmbedContentResponse, error) {
		return g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{})
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(g.maxTries))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content")
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.New("empty embedding response")
	}

	return firestore.Vector32(resp.Embeddings[0].Values), nil
}

// Classify generates schema-constrained JSON for the given prompt using
// Gemini structured output.
func (g *GeminiClient) Classify(ctx context.Context, prompt string, schema *jsonschema.Schema) (json.RawMessage, error) {
	genaiSchema, err := convertJSONSchemaToGenai(schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to convert response schema")
	}

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
		ResponseSchema: genaiSchema,
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	resp, err := backoff.Retry(ctx, func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(g.maxTries))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.New("invalid response structure from gemini")
	}

	return json.RawMessage(resp.Candidates[0].Content.Parts[0].Text), nil
}
