package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/identity"
	"github.com/m-mizutani/startzen/pkg/service/mcp"
	"github.com/m-mizutani/startzen/pkg/usecase/studio"
	"github.com/m-mizutani/startzen/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "http",
			Usage:       "Serve streamable HTTP on this address instead of stdio",
			Sources:     cli.EnvVars("STARTZEN_MCP_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, logFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, archiveFlags(&cfg)...)
	flags = append(flags, userFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the generator as MCP tools",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// stdout carries the protocol, logs go to stderr
			ctx = cfg.setupLogger(ctx, c.Root().ErrWriter)

			gw, closeGateway, err := cfg.newGateway(ctx)
			if err != nil {
				return err
			}
			defer closeGateway()

			builder, err := cfg.newBuilder(ctx, gw.Generator)
			if err != nil {
				return err
			}

			var studioOpts []studio.Option
			if gw.Archive != nil {
				studioOpts = append(studioOpts, studio.WithArchive(gw.Archive))
			}
			user := cfg.user()
			auth := identity.New(identity.NewStatic(user, user != nil))
			st := studio.New(ctx, auth, builder, gw.Records, studioOpts...)
			defer st.Close()
			auth.Refresh(ctx, "")

			var opts []mcp.Option
			if user != nil {
				opts = append(opts, mcp.WithUser(user))
			}
			srv := mcp.New(st, gw.Records, Version, opts...)

			if addr == "" {
				return srv.RunStdio(ctx)
			}
			return serveMCP(ctx, addr, srv.Handler())
		},
	}
}

func serveMCP(ctx context.Context, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.From(ctx).Warn("failed to shut down MCP server", logging.ErrAttr(err))
		}
	}()

	logging.From(ctx).Info("starting MCP server", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return goerr.Wrap(err, "MCP server stopped", goerr.V("addr", addr))
	}
	return nil
}
