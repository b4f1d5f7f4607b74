package server

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/gateway"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/render"
	"github.com/m-mizutani/startzen/pkg/usecase/studio"
)

//go:embed templates/*.html
var templateFS embed.FS

type templateRenderer struct {
	templates *template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse templates")
	}
	return &templateRenderer{templates: t}, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

type pageData struct {
	ProjectID      string
	PublishableKey string
	State          studio.State
	User           *model.User
	Feed           *render.Feed
}

func newPageData(st studio.State, cfg *gateway.Config) *pageData {
	data := &pageData{
		ProjectID:      cfg.ProjectID,
		PublishableKey: cfg.PublishableKey,
		State:          st,
		User:           st.Auth.User(),
	}
	if st.View == model.ViewDeck {
		data.Feed = render.NewFeed(st.StartupName(), st.Slides)
	}
	return data
}

func (d *pageData) Landing() bool { return d.State.View == model.ViewLanding }
func (d *pageData) Intake() bool  { return d.State.View == model.ViewIntake }
func (d *pageData) Deck() bool    { return d.State.View == model.ViewDeck }
