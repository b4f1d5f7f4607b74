package pitch

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/adapter"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/policy"
	"github.com/m-mizutani/startzen/pkg/utils/logging"
)

// ErrGenerationFailed is the single failure condition reported to callers of Generate
var ErrGenerationFailed = goerr.New("generation failed")

// Result is a generated deck together with the raw document returned by the service
type Result struct {
	Slides []model.Slide
	Raw    []byte
}

// Builder turns pitch requests into generation calls
type Builder struct {
	generator adapter.Generator
	policy    *policy.Policy
	schema    *jsonschema.Schema
	resolved  *jsonschema.Resolved
}

type Option func(*Builder)

// WithPolicy gates submissions with p
func WithPolicy(p *policy.Policy) Option {
	return func(b *Builder) {
		b.policy = p
	}
}

func New(generator adapter.Generator, opts ...Option) (*Builder, error) {
	schema := Schema()
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve deck schema")
	}

	b := &Builder{
		generator: generator,
		schema:    schema,
		resolved:  resolved,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Generate builds the prompt and schema for req, submits them and returns validated slides.
// Every failure is wrapped with ErrGenerationFailed.
func (b *Builder) Generate(ctx context.Context, req model.PitchRequest, userID model.UserID) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	decision, err := b.policy.Evaluate(ctx, req, userID)
	if err != nil {
		return nil, goerr.Wrap(ErrGenerationFailed, "policy evaluation failed", goerr.V("cause", err.Error()))
	}
	if !decision.Allow {
		return nil, goerr.Wrap(ErrGenerationFailed, "submission rejected by policy", goerr.V("reason", decision.Reason))
	}

	prompt, err := Prompt(req)
	if err != nil {
		return nil, goerr.Wrap(ErrGenerationFailed, "failed to build prompt", goerr.V("cause", err.Error()))
	}

	logging.From(ctx).Debug("requesting pitch deck", "startup_name", req.StartupName)

	raw, err := b.generator.GenerateObject(ctx, prompt, b.schema)
	if err != nil {
		return nil, goerr.Wrap(ErrGenerationFailed, "generation service call failed", goerr.V("cause", err.Error()))
	}

	slides, err := b.Parse(raw)
	if err != nil {
		return nil, err
	}

	return &Result{Slides: slides, Raw: raw}, nil
}

// Parse validates raw against the deck schema and decodes the slides
func (b *Builder) Parse(raw []byte) ([]model.Slide, error) {
	var instance map[string]any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, goerr.Wrap(ErrGenerationFailed, "response is not a JSON object", goerr.V("cause", err.Error()))
	}
	if err := b.resolved.Validate(instance); err != nil {
		return nil, goerr.Wrap(ErrGenerationFailed, "response does not match deck schema", goerr.V("cause", err.Error()))
	}

	var deck struct {
		Slides []model.Slide `json:"slides"`
	}
	if err := json.Unmarshal(raw, &deck); err != nil {
		return nil, goerr.Wrap(ErrGenerationFailed, "failed to decode slides", goerr.V("cause", err.Error()))
	}

	for i := range deck.Slides {
		if err := deck.Slides[i].Validate(); err != nil {
			return nil, goerr.Wrap(ErrGenerationFailed, "invalid slide", goerr.V("index", i), goerr.V("cause", err.Error()))
		}
	}
	if deck.Slides == nil {
		deck.Slides = []model.Slide{}
	}

	return deck.Slides, nil
}
