package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/identity"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/render"
	"github.com/m-mizutani/startzen/pkg/usecase/studio"
	"github.com/urfave/cli/v3"
)

func consoleCommand() *cli.Command {
	var cfg config

	var flags []cli.Flag
	flags = append(flags, logFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, archiveFlags(&cfg)...)
	flags = append(flags, userFlags(&cfg)...)

	return &cli.Command{
		Name:  "console",
		Usage: "Interactive pitch deck studio in the terminal",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx, c.Root().ErrWriter)
			if cfg.userID == "" {
				return goerr.New("user-id is required for the console")
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

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "startzen> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "quit",
				Stdout:          c.Root().Writer,
				Stderr:          c.Root().ErrWriter,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			var opts []studio.Option
			if gw.Archive != nil {
				opts = append(opts, studio.WithArchive(gw.Archive))
			}

			// the console starts signed out; login signs in as the configured user
			provider := identity.NewStatic(cfg.user(), false)
			auth := identity.New(provider)
			st := studio.New(ctx, auth, builder, gw.Records, opts...)
			defer st.Close()

			con := &console{
				studio:   st,
				auth:     auth,
				provider: provider,
				lines:    rl,
				out:      c.Root().Writer,
				progress: func() func() { return startSpinner(c.Root().ErrWriter, "Crafting Strategy...") },
			}
			return con.run(ctx)
		},
	}
}

type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// console drives a studio from line commands
type console struct {
	studio   *studio.Studio
	auth     *identity.Adapter
	provider *identity.Static
	lines    lineReader
	out      io.Writer
	progress func() func()
}

var errQuit = errors.New("quit")

const consoleHelp = `Commands:
  login          sign in
  logout         sign out
  pitch          enter a startup name and theme and generate a deck
  show           show the current deck
  history        list recent pitches
  open <n>       open the n-th recent pitch
  new            start a new pitch
  refine         edit the current pitch and generate again
  help           show this help
  quit           exit
`

func (x *console) run(ctx context.Context) error {
	x.auth.Refresh(ctx, "")
	fmt.Fprint(x.out, "STARTZEN AI console. Type 'help' for commands.\n")
	x.printView()

	for {
		x.lines.SetPrompt(x.prompt())
		line, err := x.lines.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to read input")
		}

		if err := x.exec(ctx, strings.TrimSpace(line)); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(x.out, "error: %s\n", err.Error())
		}
	}
}

func (x *console) prompt() string {
	return "startzen[" + string(x.studio.Snapshot().View) + "]> "
}

func (x *console) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "quit", "exit":
		return errQuit

	case "help":
		fmt.Fprint(x.out, consoleHelp)

	case "login":
		if !x.provider.SignIn() {
			return goerr.New("no user configured")
		}
		x.auth.Refresh(ctx, "")
		x.printView()

	case "logout":
		if _, err := x.auth.Logout(ctx, ""); err != nil {
			return err
		}
		x.printView()

	case "pitch":
		return x.pitch(ctx, model.PitchRequest{})

	case "refine":
		if err := x.studio.Regenerate(ctx); err != nil {
			return err
		}
		return x.pitch(ctx, x.studio.Snapshot().Draft)

	case "new":
		if err := x.studio.NewPitch(ctx); err != nil {
			return err
		}
		x.printView()

	case "show":
		x.printView()

	case "history":
		x.studio.RefreshHistory(ctx)
		return render.WriteHistory(x.out, x.studio.Snapshot().History)

	case "open":
		if len(fields) != 2 {
			return goerr.New("usage: open <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return goerr.Wrap(err, "invalid history number", goerr.V("value", fields[1]))
		}
		if err := x.studio.SelectHistoryAt(n); err != nil {
			return err
		}
		x.printView()

	default:
		return goerr.New("unknown command, type 'help'", goerr.V("command", fields[0]))
	}

	return nil
}

// pitch asks for the form fields and generates. An empty answer keeps the value of draft.
func (x *console) pitch(ctx context.Context, draft model.PitchRequest) error {
	if !x.studio.Snapshot().Auth.IsAuthenticated() {
		return studio.ErrNotSignedIn
	}

	name, err := x.ask("Startup name", draft.StartupName)
	if err != nil {
		return err
	}
	theme, err := x.ask("Main theme", draft.MainTheme)
	if err != nil {
		return err
	}

	req := model.PitchRequest{StartupName: name, MainTheme: theme}
	if !req.Complete() {
		return goerr.Wrap(model.ErrIncompleteRequest, "startup name and main theme are required")
	}

	stop := x.progress()
	err = x.studio.Generate(ctx, req)
	stop()

	if !x.printNotice() && err != nil {
		return err
	}
	if err == nil {
		x.printView()
	}
	return nil
}

func (x *console) ask(label, current string) (string, error) {
	prompt := label + ": "
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, current)
	}
	x.lines.SetPrompt(prompt)

	line, err := x.lines.Readline()
	if err != nil {
		return "", goerr.Wrap(err, "input canceled")
	}
	if v := strings.TrimSpace(line); v != "" {
		return v, nil
	}
	return current, nil
}

// printNotice prints and dismisses the pending notice. It reports whether one was shown.
func (x *console) printNotice() bool {
	st := x.studio.TakeSnapshot()
	if st.Notice == nil {
		return false
	}
	fmt.Fprintf(x.out, "[%s] %s\n", st.Notice.Level, st.Notice.Message)
	return true
}

func (x *console) printView() {
	st := x.studio.Snapshot()
	switch st.View {
	case model.ViewLanding:
		fmt.Fprint(x.out, "Turn your vision into an investor-ready pitch. Type 'login' to get started.\n")

	case model.ViewIntake:
		fmt.Fprintf(x.out, "Welcome, %s. Type 'pitch' to describe your startup.\n", st.Auth.User().Name())
		if len(st.History) > 0 {
			fmt.Fprint(x.out, "Recent Pitches:\n")
			_ = render.WriteHistory(x.out, st.History)
		}

	case model.ViewDeck:
		enc, err := render.NewEncoder(render.FormatText)
		if err != nil {
			return
		}
		_ = enc.Encode(x.out, render.NewFeed(st.StartupName(), st.Slides))
	}
}
