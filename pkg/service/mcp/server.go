package mcp

import (
	"context"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/repository"
	"github.com/m-mizutani/startzen/pkg/usecase/studio"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server exposes the pitch deck generator as MCP tools
type Server struct {
	studio  *studio.Studio
	records repository.Repository
	user    *model.User
	server  *mcp.Server
}

type Option func(*Server)

// WithUser enables the history tools for user. Generated decks are saved for this user.
func WithUser(user *model.User) Option {
	return func(s *Server) {
		s.user = user
	}
}

func New(st *studio.Studio, records repository.Repository, version string, opts ...Option) *Server {
	s := &Server{
		studio:  st,
		records: records,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "startzen",
		Version: version,
	}, nil)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolGenerate,
		Description: "Generate a six-slide investor pitch deck for a startup from its name and main theme",
	}, s.generatePitchDeck)

	if s.user != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        toolListHistory,
			Description: "List the most recent saved pitch decks, newest first",
		}, s.listPitchHistory)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        toolGetPitch,
			Description: "Show a saved pitch deck by its record ID",
		}, s.getPitch)
	}

	return s
}

// RunStdio serves over stdin and stdout until the client disconnects or ctx is canceled
func (s *Server) RunStdio(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP server stopped")
	}
	return nil
}

// Handler returns the streamable HTTP transport of the server
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)
}
