package main

import (
	"fmt"
	"log/slog"

	"github.com/nick-dorsch/todo/internal/codec"
	"github.com/nick-dorsch/todo/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

func exportCommand(sess *session) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write all tasks to a JSON or YAML file",
		ArgsUsage: "<path>",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return errors.New("usage: todo export <path>")
			}
			path := ctx.Args().First()

			tasks, err := sess.store.List(store.FilterAll)
			if err != nil {
				return errors.WithStack(err)
			}

			if err := store.NewFileBackend(sess.fs, path, nil).Save(ctx.Context, tasks); err != nil {
				return errors.Wrapf(err, "could not export to %s", path)
			}

			fmt.Fprintf(ctx.App.Writer, "Exported %d tasks to %s.\n", len(tasks), path)
			return nil
		},
	}
}

func importCommand(sess *session) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Replace all tasks with the ones in a JSON or YAML file",
		ArgsUsage: "<path>",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return errors.New("usage: todo import <path>")
			}
			path := ctx.Args().First()

			data, err := afero.ReadFile(sess.fs, path)
			if err != nil {
				return errors.Wrapf(err, "could not read %s", path)
			}

			res := codec.ForPath(path).Decode(data)
			if res.DocumentErr != nil {
				return errors.Wrapf(res.DocumentErr, "%s is not a task list", path)
			}
			for _, skip := range res.Skipped {
				slog.InfoContext(ctx.Context, "skipped malformed task record",
					slog.Int("index", skip.Index),
					slog.String("reason", skip.Reason),
				)
			}

			if err := sess.store.Replace(ctx.Context, res.Tasks); err != nil {
				return errors.WithStack(err)
			}

			fmt.Fprintf(ctx.App.Writer, "Imported %d tasks from %s (%d skipped).\n", len(res.Tasks), path, len(res.Skipped))
			return nil
		},
	}
}
