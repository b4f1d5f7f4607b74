package cli

import (
	"context"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/render"
	"github.com/m-mizutani/startzen/pkg/usecase/studio"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	var (
		cfg      config
		recordID model.RecordID
		format   string
		raw      bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "record-id",
			Aliases:     []string{"id"},
			Usage:       "Record ID of the pitch deck to show",
			Sources:     cli.EnvVars("STARTZEN_RECORD_ID"),
			Destination: (*string)(&recordID),
			Required:    true,
		},
		formatFlag(&format),
		&cli.BoolFlag{
			Name:        "raw",
			Usage:       "Print the archived raw generation output instead of the deck",
			Destination: &raw,
		},
	}
	flags = append(flags, logFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, archiveFlags(&cfg)...)

	return &cli.Command{
		Name:  "show",
		Usage: "Show a saved pitch deck",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx, c.Root().ErrWriter)

			enc, err := render.NewEncoder(render.Format(format))
			if err != nil {
				return err
			}

			gwCfg, err := cfg.newGatewayConfig()
			if err != nil {
				return err
			}
			repo, closeRepo, err := cfg.newRepository(ctx, gwCfg.ProjectID)
			if err != nil {
				return err
			}
			defer closeRepo()

			record, err := repo.GetRecord(ctx, recordID)
			if err != nil {
				return goerr.Wrap(err, "failed to get pitch record")
			}

			if raw {
				return showRaw(ctx, &cfg, c.Root().Writer, record.ID)
			}

			req, slides, err := record.Decode()
			if err != nil {
				return err
			}

			return enc.Encode(c.Root().Writer, render.NewFeed(req.StartupName, slides))
		},
	}
}

func showRaw(ctx context.Context, cfg *config, w io.Writer, id model.RecordID) error {
	archive, err := cfg.newArchive(ctx)
	if err != nil {
		return err
	}
	if archive == nil {
		return goerr.New("archive-bucket is required to show raw output")
	}

	data, err := archive.Get(ctx, studio.ArchiveKey(id))
	if err != nil {
		return goerr.Wrap(err, "failed to read archived output", goerr.V("record_id", id))
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return goerr.Wrap(err, "failed to write output")
	}
	return nil
}
