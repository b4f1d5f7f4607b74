package adapter

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	temperature     *float32
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		if model != "" {
			g.generativeModel = model
		}
	}
}

func WithTemperature(t float32) GeminiOption {
	return func(g *GeminiClient) {
		g.temperature = &t
	}
}

// GeminiConfig selects the backend. APIKey takes precedence and uses the Gemini API;
// otherwise Vertex AI is used with Project and Location.
type GeminiConfig struct {
	APIKey   string
	Project  string
	Location string
}

func NewGemini(ctx context.Context, cfg GeminiConfig, opts ...GeminiOption) (*GeminiClient, error) {
	clientConfig := &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	}
	if cfg.APIKey != "" {
		clientConfig = &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", g.generativeModel))
	}
	return resp, nil
}

func (g *GeminiClient) GenerateObject(ctx context.Context, prompt string, schema *jsonschema.Schema) ([]byte, error) {
	return generateObject(ctx, g, prompt, schema, g.temperature)
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// generateObject requests JSON output constrained by schema and returns the text of the first candidate
func generateObject(ctx context.Context, g contentGenerator, prompt string, schema *jsonschema.Schema, temperature *float32) ([]byte, error) {
	responseSchema, err := ConvertSchema(schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to convert response schema")
	}

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		Temperature:      temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := g.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, err
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.New("invalid response structure from gemini")
	}

	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			parts = append(parts, part.Text)
		}
	}
	if len(parts) == 0 {
		return nil, goerr.New("empty response from gemini")
	}

	return []byte(strings.Join(parts, "")), nil
}
