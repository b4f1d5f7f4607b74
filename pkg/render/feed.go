package render

import (
	"fmt"
	"strings"

	"github.com/m-mizutani/startzen/pkg/model"
)

// Intent is a user action offered by the feed. Intents carry no behavior of their own.
type Intent string

const (
	IntentNewSession Intent = "new_session"
	IntentExport     Intent = "export"
	IntentShare      Intent = "share"
)

type Affordance struct {
	Intent Intent `json:"intent" yaml:"intent"`
	Label  string `json:"label" yaml:"label"`
}

// Card is one slide as presented in the feed
type Card struct {
	Phase   int             `json:"phase" yaml:"phase"`
	Type    model.SlideType `json:"type" yaml:"type"`
	Title   string          `json:"title" yaml:"title"`
	Bullets []string        `json:"bullets,omitempty" yaml:"bullets,omitempty"`
	Content string          `json:"content,omitempty" yaml:"content,omitempty"`
}

// PhaseLabel returns the numbered heading of the card such as "PHASE 01"
func (c Card) PhaseLabel() string {
	return fmt.Sprintf("PHASE %02d", c.Phase)
}

// TypeLabel returns the upper-cased slide type
func (c Card) TypeLabel() string {
	return strings.ToUpper(string(c.Type))
}

func (c Card) HasBullets() bool {
	return c.Bullets != nil
}

// Feed is the read-only conversational presentation of a deck
type Feed struct {
	StartupName string       `json:"startup_name" yaml:"startup_name"`
	Prompt      string       `json:"prompt" yaml:"prompt"`
	Heading     string       `json:"heading" yaml:"heading"`
	Intro       string       `json:"intro" yaml:"intro"`
	Cards       []Card       `json:"cards" yaml:"cards"`
	Closing     string       `json:"closing" yaml:"closing"`
	Affordances []Affordance `json:"affordances" yaml:"affordances"`
}

// NewFeed maps slides to cards in order. Bullet points are used when present, otherwise the
// slide content.
func NewFeed(startupName string, slides []model.Slide) *Feed {
	cards := make([]Card, 0, len(slides))
	for i, slide := range slides {
		card := Card{
			Phase: i + 1,
			Type:  slide.Type,
			Title: slide.Title,
		}
		if slide.HasBullets() {
			card.Bullets = append([]string{}, slide.BulletPoints...)
		} else {
			card.Content = slide.Content
		}
		cards = append(cards, card)
	}

	return &Feed{
		StartupName: startupName,
		Prompt:      fmt.Sprintf("Generate a pitch for %q. Focus on the core vision and strategy.", startupName),
		Heading:     "Analysis Complete.",
		Intro: fmt.Sprintf("I've processed your vision for %q. Below is the investor-ready strategic narrative structured for maximum clarity and impact.",
			startupName),
		Cards:   cards,
		Closing: "End of Analysis",
		Affordances: []Affordance{
			{Intent: IntentNewSession, Label: "New Session"},
			{Intent: IntentExport, Label: "Export Strategy PDF"},
			{Intent: IntentShare, Label: "Share Insight"},
		},
	}
}
