package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/render"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	var (
		cfg   config
		limit int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of pitches",
			Value:       model.HistoryLimit,
			Destination: &limit,
		},
	}
	flags = append(flags, logFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, userFlags(&cfg)...)

	return &cli.Command{
		Name:  "history",
		Usage: "List saved pitch decks of a user, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx, c.Root().ErrWriter)
			if cfg.userID == "" {
				return goerr.New("user-id is required")
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

			records, err := repo.ListRecords(ctx, model.UserID(cfg.userID), int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to list pitch records")
			}

			return render.WriteHistory(c.Root().Writer, records)
		},
	}
}
