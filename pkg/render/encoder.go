package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/model"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = goerr.New("unknown output format")

// Encoder writes a feed to w
type Encoder interface {
	Encode(w io.Writer, feed *Feed) error
}

type EncoderFunc func(w io.Writer, feed *Feed) error

func (f EncoderFunc) Encode(w io.Writer, feed *Feed) error {
	return f(w, feed)
}

// NewEncoder returns the encoder for format
func NewEncoder(format Format) (Encoder, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatText, "":
		return EncoderFunc(encodeText), nil
	case FormatJSON:
		return EncoderFunc(encodeJSON), nil
	case FormatYAML:
		return EncoderFunc(encodeYAML), nil
	default:
		return nil, goerr.Wrap(ErrUnknownFormat, "unsupported format", goerr.V("format", format))
	}
}

func encodeJSON(w io.Writer, feed *Feed) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return goerr.Wrap(err, "failed to encode feed as JSON")
	}
	return nil
}

func encodeYAML(w io.Writer, feed *Feed) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(feed); err != nil {
		return goerr.Wrap(err, "failed to encode feed as YAML")
	}
	if err := enc.Close(); err != nil {
		return goerr.Wrap(err, "failed to flush YAML encoder")
	}
	return nil
}

func encodeText(w io.Writer, feed *Feed) error {
	var b strings.Builder

	fmt.Fprintf(&b, "> %s\n\n", feed.Prompt)
	fmt.Fprintf(&b, "STARTZEN INTELLIGENCE\n%s\n%s\n", feed.Heading, feed.Intro)

	for _, card := range feed.Cards {
		fmt.Fprintf(&b, "\n%s  [%s]\n", card.PhaseLabel(), card.TypeLabel())
		fmt.Fprintf(&b, "%s\n", card.Title)
		if card.HasBullets() {
			for _, point := range card.Bullets {
				fmt.Fprintf(&b, "  - %s\n", point)
			}
		} else {
			fmt.Fprintf(&b, "  %s\n", card.Content)
		}
	}

	fmt.Fprintf(&b, "\n--- %s ---\n", feed.Closing)
	labels := make([]string, len(feed.Affordances))
	for i, a := range feed.Affordances {
		labels[i] = "[" + a.Label + "]"
	}
	fmt.Fprintf(&b, "%s\n", strings.Join(labels, " "))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return goerr.Wrap(err, "failed to write feed")
	}
	return nil
}

// WriteHistory prints records as a numbered list, newest first
func WriteHistory(w io.Writer, records []*model.PitchRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No saved pitches yet.")
		return err
	}

	for i, r := range records {
		if _, err := fmt.Fprintf(w, "%2d. %s  %s  (%s)\n", i+1, r.StartupName,
			r.CreatedAt.Format("2006-01-02 15:04"), r.ID); err != nil {
			return goerr.Wrap(err, "failed to write history")
		}
	}
	return nil
}
