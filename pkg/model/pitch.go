package model

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrIncompleteRequest = goerr.New("startup name and main theme are required")
	ErrInvalidSlideType  = goerr.New("invalid slide type")
)

// PitchRequest is the intake form submitted by a founder
type PitchRequest struct {
	StartupName string `json:"startupName"`
	MainTheme   string `json:"mainTheme"`
}

// Complete reports whether both fields carry non-blank text
func (r PitchRequest) Complete() bool {
	return strings.TrimSpace(r.StartupName) != "" && strings.TrimSpace(r.MainTheme) != ""
}

// Validate checks if the request can be submitted
func (r PitchRequest) Validate() error {
	if !r.Complete() {
		return goerr.Wrap(ErrIncompleteRequest, "pitch request is incomplete",
			goerr.V("startup_name", r.StartupName),
			goerr.V("main_theme", r.MainTheme),
		)
	}
	return nil
}

type SlideType string

const (
	SlideTypeTitle    SlideType = "title"
	SlideTypeProblem  SlideType = "problem"
	SlideTypeSolution SlideType = "solution"
	SlideTypeMarket   SlideType = "market"
	SlideTypeTeam     SlideType = "team"
	SlideTypeAsk      SlideType = "ask"
)

// SlideTypes returns all slide types in deck order
func SlideTypes() []SlideType {
	return []SlideType{
		SlideTypeTitle,
		SlideTypeProblem,
		SlideTypeSolution,
		SlideTypeMarket,
		SlideTypeTeam,
		SlideTypeAsk,
	}
}

// Validate checks if the slide type is valid
func (t SlideType) Validate() error {
	switch t {
	case SlideTypeTitle, SlideTypeProblem, SlideTypeSolution, SlideTypeMarket, SlideTypeTeam, SlideTypeAsk:
		return nil
	default:
		return goerr.Wrap(ErrInvalidSlideType, "unknown slide type", goerr.V("type", t))
	}
}

// Slide is one unit of a generated deck. Slides are only produced by the generation service.
type Slide struct {
	Title        string    `json:"title" yaml:"title"`
	Content      string    `json:"content" yaml:"content"`
	Type         SlideType `json:"type" yaml:"type"`
	BulletPoints []string  `json:"bulletPoints,omitempty" yaml:"bulletPoints,omitempty"`
}

// HasBullets reports whether the slide is rendered as a bullet list
func (s Slide) HasBullets() bool {
	return s.BulletPoints != nil
}

// Body returns the lines to display: bullet points when present, otherwise the content
func (s Slide) Body() []string {
	if s.HasBullets() {
		return s.BulletPoints
	}
	return []string{s.Content}
}

// Validate checks if the slide is valid
func (s *Slide) Validate() error {
	return s.Type.Validate()
}

type slideJSON struct {
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Type         SlideType `json:"type"`
	BulletPoints *[]string `json:"bulletPoints,omitempty"`
}

// MarshalJSON omits bulletPoints only when absent, so an empty list survives a round trip
func (s Slide) MarshalJSON() ([]byte, error) {
	out := slideJSON{
		Title:   s.Title,
		Content: s.Content,
		Type:    s.Type,
	}
	if s.BulletPoints != nil {
		bp := s.BulletPoints
		out.BulletPoints = &bp
	}
	return json.Marshal(out)
}
