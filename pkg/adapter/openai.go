package adapter

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient generates structured objects with the chat completion API
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type OpenAIOption func(*openai.ClientConfig, *OpenAIClient)

func WithOpenAIModel(model string) OpenAIOption {
	return func(_ *openai.ClientConfig, c *OpenAIClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(cfg *openai.ClientConfig, _ *OpenAIClient) {
		cfg.BaseURL = url
	}
}

func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, goerr.New("openai api key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	c := &OpenAIClient{model: openai.GPT4oMini}
	for _, opt := range opts {
		opt(&cfg, c)
	}
	c.client = openai.NewClientWithConfig(cfg)

	return c, nil
}

func (c *OpenAIClient) GenerateObject(ctx context.Context, prompt string, schema *jsonschema.Schema) ([]byte, error) {
	rawSchema, err := json.Marshal(schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal response schema")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "pitch_deck",
				Schema: json.RawMessage(rawSchema),
				// strict mode requires every property to be required; bulletPoints is optional
				Strict: false,
			},
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat completion", goerr.V("model", c.model))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, goerr.New("empty response from openai", goerr.V("model", c.model))
	}

	return []byte(resp.Choices[0].Message.Content), nil
}
