package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/render"
	"github.com/m-mizutani/startzen/pkg/usecase/pitch"
	"github.com/m-mizutani/startzen/pkg/usecase/studio"
	"github.com/m-mizutani/startzen/pkg/utils/logging"
)

type pitchForm struct {
	StartupName string `json:"startupName" form:"startupName"`
	MainTheme   string `json:"mainTheme" form:"mainTheme"`
}

type noticeResponse struct {
	Level   model.NoticeLevel `json:"level"`
	Message string            `json:"message"`
}

type historyEntry struct {
	ID          model.RecordID `json:"id"`
	StartupName string         `json:"startupName"`
	CreatedAt   string         `json:"createdAt"`
}

type stateResponse struct {
	View          model.View      `json:"view"`
	Authenticated bool            `json:"authenticated"`
	Loading       bool            `json:"loading"`
	IsGenerating  bool            `json:"isGenerating"`
	StartupName   string          `json:"startupName,omitempty"`
	Feed          *render.Feed    `json:"feed,omitempty"`
	History       []historyEntry  `json:"history"`
	Notice        *noticeResponse `json:"notice,omitempty"`
	LogoutURL     string          `json:"logoutUrl,omitempty"`
}

func newStateResponse(st studio.State) *stateResponse {
	resp := &stateResponse{
		View:          st.View,
		Authenticated: st.Auth.IsAuthenticated(),
		Loading:       st.Auth.IsLoading(),
		IsGenerating:  st.IsGenerating,
		History:       make([]historyEntry, 0, len(st.History)),
	}
	if st.View == model.ViewDeck {
		resp.StartupName = st.StartupName()
		resp.Feed = render.NewFeed(st.StartupName(), st.Slides)
	}
	for _, r := range st.History {
		resp.History = append(resp.History, historyEntry{
			ID:          r.ID,
			StartupName: r.StartupName,
			CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	if st.Notice != nil {
		resp.Notice = &noticeResponse{Level: st.Notice.Level, Message: st.Notice.Message}
	}
	return resp
}

// wantsJSON reports whether the caller is a script rather than a form post
func wantsJSON(c echo.Context) bool {
	req := c.Request()
	if req.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// respond writes the current state as JSON for scripts, or sends browsers back to the page
func respond(c echo.Context, status int) error {
	cl := clientOf(c)
	if wantsJSON(c) {
		return c.JSON(status, newStateResponse(cl.studio.TakeSnapshot()))
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(c echo.Context) error {
	st := clientOf(c).studio.TakeSnapshot()
	return c.Render(http.StatusOK, "page.html", newPageData(st, s.gateway.Config))
}

func (s *Server) handleState(c echo.Context) error {
	st := clientOf(c).studio.Snapshot()
	return c.JSON(http.StatusOK, newStateResponse(st))
}

func (s *Server) handleLogin(c echo.Context) error {
	origin := c.Scheme() + "://" + c.Request().Host
	return c.Redirect(http.StatusFound, clientOf(c).auth.Login(origin, "/"))
}

func (s *Server) handleLogout(c echo.Context) error {
	ctx := c.Request().Context()
	redirect, err := clientOf(c).auth.Logout(ctx, s.credential(c))
	if err != nil {
		logging.From(ctx).Warn("identity provider sign-out failed", logging.ErrAttr(err))
	}

	if wantsJSON(c) {
		// a non-empty redirect means the provider still holds the session
		resp := newStateResponse(clientOf(c).studio.TakeSnapshot())
		resp.LogoutURL = redirect
		return c.JSON(http.StatusOK, resp)
	}
	if redirect == "" {
		redirect = "/"
	}
	return c.Redirect(http.StatusSeeOther, redirect)
}

func (s *Server) handleGenerate(c echo.Context) error {
	cl := clientOf(c)
	if !cl.auth.State().IsAuthenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "sign in required")
	}

	var form pitchForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pitch request")
	}
	req := model.PitchRequest{StartupName: form.StartupName, MainTheme: form.MainTheme}

	// generation is not canceled when the browser goes away
	ctx := context.WithoutCancel(c.Request().Context())
	err := cl.studio.Generate(ctx, req)
	switch {
	case err == nil:
		return respond(c, http.StatusOK)
	case errors.Is(err, model.ErrIncompleteRequest):
		return echo.NewHTTPError(http.StatusBadRequest, "startup name and main theme are required")
	case errors.Is(err, studio.ErrGenerationInProgress):
		return echo.NewHTTPError(http.StatusConflict, "generation already in progress")
	case errors.Is(err, studio.ErrResultDiscarded):
		return respond(c, http.StatusConflict)
	case errors.Is(err, pitch.ErrGenerationFailed):
		return respond(c, http.StatusBadGateway)
	default:
		return err
	}
}

func (s *Server) handleNewPitch(c echo.Context) error {
	if err := clientOf(c).studio.NewPitch(c.Request().Context()); err != nil {
		return s.navigationError(err)
	}
	return respond(c, http.StatusOK)
}

func (s *Server) handleRegenerate(c echo.Context) error {
	if err := clientOf(c).studio.Regenerate(c.Request().Context()); err != nil {
		return s.navigationError(err)
	}
	return respond(c, http.StatusOK)
}

func (s *Server) handleSelectHistory(c echo.Context) error {
	id := model.RecordID(c.Param("id"))
	if err := clientOf(c).studio.SelectHistory(id); err != nil {
		return s.navigationError(err)
	}
	return respond(c, http.StatusOK)
}

func (s *Server) navigationError(err error) error {
	switch {
	case errors.Is(err, studio.ErrNotSignedIn):
		return echo.NewHTTPError(http.StatusUnauthorized, "sign in required")
	case errors.Is(err, model.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "pitch not found in history")
	default:
		return err
	}
}

// handleError renders HTTP errors as JSON for scripts and plain text otherwise
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		}
	} else {
		logging.From(c.Request().Context()).Error("request handling failed", logging.ErrAttr(err))
	}

	if wantsJSON(c) {
		err = c.JSON(code, map[string]string{"error": message})
	} else {
		err = c.String(code, message)
	}
	if err != nil {
		logging.From(c.Request().Context()).Warn("failed to write error response", logging.ErrAttr(err))
	}
}
