package adapter

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
)

// ClaudeClient is an alternative Classifier backed by the Anthropic API.
// It forces a single tool call whose input schema is the classification
// schema, so the model can only answer with schema-shaped JSON.
type ClaudeClient struct {
	client *anthropic.Client
	model  anthropic.Model
}

type ClaudeOption func(*ClaudeClient)

func WithClaudeModel(model string) ClaudeOption {
	return func(c *ClaudeClient) {
		c.model = anthropic.Model(model)
	}
}

func NewClaude(apiKey string, opts ...ClaudeOption) *ClaudeClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	c := &ClaudeClient{
		client: &client,
		model:  anthropic.ModelClaudeSonnet4_20250514,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

const classifyToolName = "submit_result"

func (c *ClaudeClient) Classify(ctx context.Context, prompt string, schema *jsonschema.Schema) (json.RawMessage, error) {
	inputSchema, err := convertJSONSchemaToTool(schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to convert tool schema")
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools: []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        classifyToolName,
					Description: anthropic.String("Submit the structured classification result"),
					InputSchema: *inputSchema,
				},
			},
		},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: classifyToolName},
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call anthropic messages API")
	}

	for _, block := range msg.Content {
		if block.Type != "tool_use" || block.Name != classifyToolName {
			continue
		}
		raw, err := json.Marshal(block.Input)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal tool input")
		}
		return json.RawMessage(raw), nil
	}

	return nil, goerr.New("no tool use block in claude response")
}

// convertJSONSchemaToTool maps a JSON Schema onto the Anthropic tool input
// schema, which is itself JSON Schema with a fixed top-level object type.
func convertJSONSchemaToTool(schema *jsonschema.Schema) (*anthropic.ToolInputSchemaParam, error) {
	if schema == nil || schema.Type != "object" {
		return nil, goerr.New("tool schema must be an object", goerr.V("schema", schema))
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal schema")
	}

	var generic struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal schema")
	}

	return &anthropic.ToolInputSchemaParam{
		Properties: generic.Properties,
		Required:   generic.Required,
	}, nil
}
