package pitch

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/model"
)

//go:embed prompt/pitch.md
var pitchPromptRaw string

var pitchPromptTmpl = template.Must(template.New("pitch").Parse(pitchPromptRaw))

// Prompt renders the generation instruction for req
func Prompt(req model.PitchRequest) (string, error) {
	var buf bytes.Buffer
	if err := pitchPromptTmpl.Execute(&buf, map[string]any{
		"StartupName": req.StartupName,
		"MainTheme":   req.MainTheme,
		"SlideTypes":  model.SlideTypes(),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute pitch prompt template")
	}
	return buf.String(), nil
}

// Schema returns the output schema of a deck: {slides: [{title, content, type, bulletPoints?}]}
func Schema() *jsonschema.Schema {
	slideTypes := model.SlideTypes()
	enum := make([]any, len(slideTypes))
	for i, t := range slideTypes {
		enum[i] = string(t)
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"slides": {
				Type:        "array",
				Description: "Slides of the pitch deck in presentation order",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"title":   {Type: "string"},
						"content": {Type: "string"},
						"type":    {Type: "string", Enum: enum},
						"bulletPoints": {
							Type:  "array",
							Items: &jsonschema.Schema{Type: "string"},
						},
					},
					Required: []string{"title", "content", "type"},
				},
			},
		},
		Required: []string{"slides"},
	}
}
