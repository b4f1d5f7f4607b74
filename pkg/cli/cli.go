package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// Version is set at build time
var Version = "dev"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := newApp(os.Stdin, os.Stdout, os.Stderr)

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "startzen",
		Usage:     "AI pitch deck generator",
		Version:   Version,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			serveCommand(),
			generateCommand(),
			historyCommand(),
			showCommand(),
			consoleCommand(),
			mcpCommand(),
		},
	}
}
