package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/mattn/go-isatty"
	"github.com/nick-dorsch/todo/internal/config"
	"github.com/nick-dorsch/todo/internal/mcp"
	"github.com/nick-dorsch/todo/internal/setup"
	"github.com/nick-dorsch/todo/internal/shell"
	"github.com/nick-dorsch/todo/internal/store"
	"github.com/nick-dorsch/todo/internal/ui"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

// session holds what the Before hook opened for the running command.
type session struct {
	fs    afero.Fs
	store *store.Store
	close func() error
}

func newApp(in io.Reader, out, errOut io.Writer) *cli.App {
	sess := &session{fs: afero.NewOsFs()}

	app := &cli.App{
		Name:      "todo",
		Usage:     "track tasks in a local file",
		Reader:    in,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "task document or database path (env TODO_STORAGE_PATH)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "storage format: json, yaml or sqlite (env TODO_STORAGE_FORMAT)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (env TODO_LOGGER_LEVEL)",
			},
		},
		Before: func(ctx *cli.Context) error {
			conf, err := config.Parse()
			if err != nil {
				return errors.Wrap(err, "could not parse config")
			}
			if err := applyFlags(ctx, conf); err != nil {
				return errors.WithStack(err)
			}

			logger := slog.New(slog.NewTextHandler(ctx.App.ErrWriter, &slog.HandlerOptions{
				Level: conf.Logger.Level,
			}))
			slog.SetDefault(logger)

			slog.DebugContext(ctx.Context, "using configuration", slog.Any("config", conf))

			s, closeFn, err := setup.NewStoreFromConfig(ctx.Context, conf, sess.fs)
			if err != nil {
				return errors.Wrap(err, "could not open task storage")
			}
			sess.store = s
			sess.close = closeFn
			return nil
		},
		After: func(ctx *cli.Context) error {
			if sess.close == nil {
				return nil
			}
			return errors.WithStack(sess.close())
		},
		Action: func(ctx *cli.Context) error {
			return runInteractive(ctx, sess)
		},
		Commands: []*cli.Command{
			shellCommand("add", "add <description> <priority>", "Add a new task", sess),
			shellCommand("list", "list [ALL|TODO|IN_PROGRESS|COMPLETE|PRIORITY]", "List tasks", sess),
			shellCommand("update", "update <id> [-p <priority>] <description>", "Update a task's description and priority", sess),
			shellCommand("status", "status <id> <status>", "Update a task's status", sess),
			shellCommand("delete", "delete <id>", "Delete a task", sess),
			shellCommand("show", "show <id>", "Show a single task", sess),
			shellCommand("summary", "summary", "Count tasks per status", sess),
			{
				Name:  "shell",
				Usage: "Start the interactive shell",
				Action: func(ctx *cli.Context) error {
					return runInteractive(ctx, sess)
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve the task store as MCP tools on stdio",
				Action: func(ctx *cli.Context) error {
					return errors.WithStack(mcp.Serve(mcp.NewServer(sess.store)))
				},
			},
			exportCommand(sess),
			importCommand(sess),
		},
	}

	app.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}
		fmt.Fprintf(ctx.App.ErrWriter, "Error: %s\n", err)
		slog.DebugContext(ctx.Context, "command failed", slog.String("error", fmt.Sprintf("%+v", err)))
	}

	sort.Sort(cli.FlagsByName(app.Flags))

	return app
}

func applyFlags(ctx *cli.Context, conf *config.Config) error {
	if ctx.IsSet("file") {
		conf.Storage.Path = ctx.String("file")
	}
	if ctx.IsSet("format") {
		conf.Storage.Format = ctx.String("format")
	}
	if ctx.IsSet("log-level") {
		if err := conf.Logger.Level.UnmarshalText([]byte(ctx.String("log-level"))); err != nil {
			return errors.Wrap(err, "invalid log level")
		}
	}
	return nil
}

// shellCommand exposes a shell command as a one-shot subcommand. Arguments
// are passed through untouched so quoting and -p behave as in the shell.
func shellCommand(name, usage, summary string, sess *session) *cli.Command {
	return &cli.Command{
		Name:            name,
		Usage:           summary,
		UsageText:       "todo " + usage,
		SkipFlagParsing: true,
		Action: func(ctx *cli.Context) error {
			sh := shell.New(sess.store, ctx.App.Writer)
			args := append([]string{name}, ctx.Args().Slice()...)
			_, err := sh.ExecArgs(ctx.Context, args)
			return err
		},
	}
}

// runInteractive starts the bubbletea shell on a terminal and the plain line
// loop otherwise.
func runInteractive(ctx *cli.Context, sess *session) error {
	if isTerminal(ctx.App.Reader) && isTerminal(ctx.App.Writer) {
		return errors.WithStack(ui.RunREPL(ctx.Context, sess.store))
	}
	sh := shell.New(sess.store, ctx.App.Writer)
	return errors.WithStack(sh.RunLines(ctx.Context, ctx.App.Reader))
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
