package db

import (
	"context"
	"log/slog"

	"github.com/nick-dorsch/todo/internal/codec"
	"github.com/nick-dorsch/todo/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// EnableAutoSnapshot sets up a hook that exports a snapshot to path after
// every successful write. The snapshot format follows the path extension.
func (db *DB) EnableAutoSnapshot(fsys afero.Fs, path string) {
	db.SetOnChange(func(ctx context.Context) {
		// Snapshots are best-effort: the write itself already committed.
		if err := db.ExportSnapshot(ctx, fsys, path); err != nil {
			slog.WarnContext(ctx, "failed to export snapshot",
				slog.String("path", path),
				slog.Any("error", err),
			)
		}
	})
}

// ExportSnapshot writes every task to path atomically.
func (db *DB) ExportSnapshot(ctx context.Context, fsys afero.Fs, path string) error {
	res, err := db.LoadTasks(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read tasks for snapshot")
	}

	if err := store.NewFileBackend(fsys, path, nil).Save(ctx, res.Tasks); err != nil {
		return errors.Wrap(err, "failed to write snapshot")
	}
	return nil
}

// ImportSnapshot replaces the table contents with the tasks found in the
// snapshot at path. Malformed records are skipped and ids are renumbered
// 1..N in document order.
func (db *DB) ImportSnapshot(ctx context.Context, fsys afero.Fs, path string) (codec.Result, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return codec.Result{}, errors.Wrap(err, "failed to read snapshot file")
	}

	res := codec.ForPath(path).Decode(data)
	if res.DocumentErr != nil {
		return res, errors.Wrap(res.DocumentErr, "snapshot is not a task list")
	}

	for i := range res.Tasks {
		res.Tasks[i].ID = i + 1
	}

	if err := db.ReplaceTasks(ctx, res.Tasks); err != nil {
		return res, errors.Wrap(err, "failed to import snapshot")
	}
	return res, nil
}
