package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/gateway"
	"github.com/m-mizutani/startzen/pkg/usecase/studio"
	"github.com/m-mizutani/startzen/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ClientCookie identifies the browser session that owns a studio
const ClientCookie = "startzen_client"

// Server is the web client. Every browser gets its own identity adapter and studio.
type Server struct {
	echo    *echo.Echo
	gateway *gateway.Gateway
	builder studio.DeckBuilder
	clients *clients

	credentialCookie string
	secureCookie     bool
	generateRate     rate.Limit
	generateBurst    int
}

type Option func(*Server)

// WithCredentialCookie sets the name of the identity provider session cookie
func WithCredentialCookie(name string) Option {
	return func(s *Server) {
		s.credentialCookie = name
	}
}

// WithSecureCookie marks the client cookie as HTTPS only
func WithSecureCookie(secure bool) Option {
	return func(s *Server) {
		s.secureCookie = secure
	}
}

// WithClientTTL sets how long an idle browser session is kept
func WithClientTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.clients.ttl = ttl
	}
}

// WithGenerateRate limits generation requests per client address
func WithGenerateRate(r rate.Limit, burst int) Option {
	return func(s *Server) {
		s.generateRate = r
		s.generateBurst = burst
	}
}

func New(gw *gateway.Gateway, builder studio.DeckBuilder, opts ...Option) (*Server, error) {
	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		gateway:          gw,
		builder:          builder,
		clients:          newClients(30 * time.Minute),
		credentialCookie: "ory_kratos_session",
		generateRate:     rate.Limit(10.0 / 60.0),
		generateBurst:    3,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(securityHeaders())

	e.GET("/healthz", s.handleHealth)

	app := e.Group("", s.clientSession)
	app.GET("/", s.handleIndex)
	app.GET("/state", s.handleState)
	app.GET("/login", s.handleLogin)
	app.POST("/logout", s.handleLogout)
	app.POST("/pitch", s.handleGenerate, newRateLimiter(s.generateRate, s.generateBurst).middleware())
	app.POST("/pitch/new", s.handleNewPitch)
	app.POST("/pitch/regenerate", s.handleRegenerate)
	app.POST("/history/:id", s.handleSelectHistory)

	s.echo = e
	return s, nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves on addr until ctx is canceled
func (s *Server) Run(ctx context.Context, addr string) error {
	logger := logging.From(ctx)
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting web server", "addr", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return goerr.Wrap(err, "web server stopped", goerr.V("addr", addr))
		}
		return nil
	})

	g.Go(func() error {
		s.clients.sweepLoop(gCtx)
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.clients.closeAll()
		return s.echo.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
