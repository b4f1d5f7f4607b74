package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/adapter"
	"github.com/m-mizutani/startzen/pkg/server"
	"github.com/m-mizutani/startzen/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg          config
		addr         string
		secureCookie bool
		clientTTL    time.Duration
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Usage:       "Listen address",
			Value:       "127.0.0.1:8080",
			Sources:     cli.EnvVars("STARTZEN_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "secure-cookie",
			Usage:       "Send the client cookie over HTTPS only",
			Sources:     cli.EnvVars("STARTZEN_SECURE_COOKIE"),
			Destination: &secureCookie,
		},
		&cli.DurationFlag{
			Name:        "client-ttl",
			Usage:       "How long an idle browser session is kept",
			Value:       30 * time.Minute,
			Sources:     cli.EnvVars("STARTZEN_CLIENT_TTL"),
			Destination: &clientTTL,
		},
	}
	flags = append(flags, logFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, archiveFlags(&cfg)...)
	flags = append(flags, kratosFlags(&cfg)...)
	flags = append(flags, userFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web client",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
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

			srv, err := server.New(gw, builder,
				server.WithCredentialCookie(adapter.SessionCookie),
				server.WithSecureCookie(secureCookie),
				server.WithClientTTL(clientTTL),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create web server")
			}

			logging.From(ctx).Info("platform project resolved", "project_id", gw.Config.ProjectID)
			return srv.Run(ctx, addr)
		},
	}
}
