package cli

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/identity"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/render"
	"github.com/m-mizutani/startzen/pkg/usecase/studio"
	"github.com/urfave/cli/v3"
)

func generateCommand() *cli.Command {
	var (
		cfg    config
		req    model.PitchRequest
		format string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Startup name",
			Destination: &req.StartupName,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "theme",
			Aliases:     []string{"t"},
			Usage:       "Core vision or theme of the startup",
			Destination: &req.MainTheme,
			Required:    true,
		},
		formatFlag(&format),
	}
	flags = append(flags, logFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, archiveFlags(&cfg)...)
	flags = append(flags, userFlags(&cfg)...)

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate a pitch deck. It is saved when a user ID is given",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx, c.Root().ErrWriter)

			enc, err := render.NewEncoder(render.Format(format))
			if err != nil {
				return err
			}

			gw, closeGateway, err := cfg.newGateway(ctx)
			if err != nil {
				return err
			}
			defer closeGateway()

			builder, err := cfg.newBuilder(ctx, gw.Generator)
			if err != nil {
				return err
			}

			var opts []studio.Option
			if gw.Archive != nil {
				opts = append(opts, studio.WithArchive(gw.Archive))
			}

			// local commands always act as the configured user
			user := cfg.user()
			auth := identity.New(identity.NewStatic(user, user != nil))
			st := studio.New(ctx, auth, builder, gw.Records, opts...)
			defer st.Close()
			auth.Refresh(ctx, "")

			stop := startSpinner(c.Root().ErrWriter, "Crafting Strategy...")
			err = st.Generate(ctx, req)
			stop()
			if err != nil {
				if errors.Is(err, model.ErrIncompleteRequest) {
					return goerr.Wrap(err, "startup name and theme must not be empty")
				}
				return goerr.Wrap(err, "failed to generate pitch deck")
			}

			snapshot := st.Snapshot()
			return enc.Encode(c.Root().Writer, render.NewFeed(snapshot.StartupName(), snapshot.Slides))
		},
	}
}

func formatFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "format",
		Aliases:     []string{"f"},
		Usage:       "Output format (text, json, yaml)",
		Value:       string(render.FormatText),
		Destination: dst,
	}
}
