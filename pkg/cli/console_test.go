package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/startzen/pkg/identity"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/repository"
	"github.com/m-mizutani/startzen/pkg/usecase/pitch"
	"github.com/m-mizutani/startzen/pkg/usecase/studio"
)

type scriptedReader struct {
	lines   []string
	prompts []string
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) SetPrompt(prompt string) {
	r.prompts = append(r.prompts, prompt)
}

type fixedBuilder struct {
	err  error
	reqs []model.PitchRequest
}

func (b *fixedBuilder) Generate(ctx context.Context, req model.PitchRequest, userID model.UserID) (*pitch.Result, error) {
	b.reqs = append(b.reqs, req)
	if b.err != nil {
		return nil, b.err
	}
	return &pitch.Result{
		Slides: []model.Slide{
			{Title: "NovaGrid", Content: "Power for everyone", Type: model.SlideTypeTitle},
			{Title: "Outages", Content: "Grids fail", Type: model.SlideTypeProblem, BulletPoints: []string{"Storms", "Aging lines"}},
		},
		Raw: []byte(`{"slides":[]}`),
	}, nil
}

func newTestConsole(t *testing.T, builder studio.DeckBuilder, lines ...string) (*console, *scriptedReader, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()

	records, err := repository.NewMemory()
	gt.NoError(t, err)

	provider := identity.NewStatic(&model.User{ID: "u1", DisplayName: "Ada"}, false)
	auth := identity.New(provider)
	st := studio.New(ctx, auth, builder, records)
	t.Cleanup(st.Close)

	reader := &scriptedReader{lines: lines}
	out := &bytes.Buffer{}
	return &console{
		studio:   st,
		auth:     auth,
		provider: provider,
		lines:    reader,
		out:      out,
		progress: func() func() { return func() {} },
	}, reader, out
}

func TestConsoleGenerateAndHistory(t *testing.T) {
	builder := &fixedBuilder{}
	con, reader, out := newTestConsole(t, builder,
		"login",
		"pitch",
		"NovaGrid",
		"solar microgrids",
		"new",
		"history",
		"open 1",
		"quit",
	)

	gt.NoError(t, con.run(context.Background()))

	gt.A(t, builder.reqs).Length(1)
	gt.Equal(t, builder.reqs[0].StartupName, "NovaGrid")
	gt.Equal(t, builder.reqs[0].MainTheme, "solar microgrids")

	text := out.String()
	gt.S(t, text).Contains("Type 'login' to get started")
	gt.S(t, text).Contains("Welcome, Ada")
	gt.S(t, text).Contains("Pitch deck generated successfully!")
	gt.S(t, text).Contains("PHASE 02")
	gt.S(t, text).Contains("- Aging lines")
	gt.S(t, text).Contains("NovaGrid")
	gt.S(t, reader.prompts[len(reader.prompts)-1]).Contains("deck")
}

func TestConsoleRefineKeepsDraft(t *testing.T) {
	builder := &fixedBuilder{}
	con, _, _ := newTestConsole(t, builder,
		"login",
		"pitch",
		"NovaGrid",
		"solar microgrids",
		"refine",
		"",
		"wind farms",
	)

	gt.NoError(t, con.run(context.Background()))

	gt.A(t, builder.reqs).Length(2)
	gt.Equal(t, builder.reqs[1].StartupName, "NovaGrid")
	gt.Equal(t, builder.reqs[1].MainTheme, "wind farms")
}

func TestConsoleRequiresSignIn(t *testing.T) {
	builder := &fixedBuilder{}
	con, _, out := newTestConsole(t, builder, "pitch", "exit")

	gt.NoError(t, con.run(context.Background()))
	gt.A(t, builder.reqs).Length(0)
	gt.S(t, out.String()).Contains("error:")
}

func TestConsoleGenerationFailure(t *testing.T) {
	builder := &fixedBuilder{err: errors.New("service unavailable")}
	con, reader, out := newTestConsole(t, builder,
		"login",
		"pitch",
		"NovaGrid",
		"solar microgrids",
	)

	gt.NoError(t, con.run(context.Background()))

	gt.S(t, out.String()).Contains("Failed to generate pitch deck. Please try again.")
	gt.S(t, out.String()).NotContains("PHASE 01")
	gt.S(t, reader.prompts[len(reader.prompts)-1]).Contains("intake")
}

func TestConsoleUnknownCommand(t *testing.T) {
	con, _, out := newTestConsole(t, &fixedBuilder{}, "dance", "open x", "logout")

	gt.NoError(t, con.run(context.Background()))
	gt.S(t, out.String()).Contains("unknown command")
	gt.S(t, out.String()).Contains("invalid history number")
}
