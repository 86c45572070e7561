package setup

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nick-dorsch/todo/internal/codec"
	"github.com/nick-dorsch/todo/internal/config"
	"github.com/nick-dorsch/todo/internal/db"
	"github.com/nick-dorsch/todo/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// StorageFormat resolves the configured format, falling back to the path
// extension when none is set.
func StorageFormat(conf *config.Config) string {
	if f := strings.ToLower(strings.TrimSpace(conf.Storage.Format)); f != "" {
		return f
	}

	switch strings.ToLower(filepath.Ext(conf.Storage.Path)) {
	case ".db", ".sqlite", ".sqlite3":
		return config.FormatSQLite
	default:
		return codec.ForPath(conf.Storage.Path).Name()
	}
}

// NewBackendFromConfig opens the backend selected by conf. The returned
// close function releases it and is never nil.
func NewBackendFromConfig(ctx context.Context, conf *config.Config, fsys afero.Fs) (store.Backend, func() error, error) {
	format := StorageFormat(conf)
	noop := func() error { return nil }

	if format != config.FormatSQLite {
		c, err := codec.ByName(format)
		if err != nil {
			return nil, noop, errors.WithStack(err)
		}
		return store.NewFileBackend(fsys, conf.Storage.Path, c), noop, nil
	}

	database, err := db.Open(conf.Storage.Path)
	if err != nil {
		return nil, noop, errors.WithStack(err)
	}

	if err := database.Init(ctx); err != nil {
		database.Close()
		return nil, noop, errors.WithStack(err)
	}

	if conf.Storage.Snapshot != "" {
		if err := restoreSnapshot(ctx, database, fsys, conf.Storage.Snapshot); err != nil {
			database.Close()
			return nil, noop, errors.WithStack(err)
		}
		slog.DebugContext(ctx, "enabling auto snapshot", slog.String("path", conf.Storage.Snapshot))
		database.EnableAutoSnapshot(fsys, conf.Storage.Snapshot)
	}

	return db.NewBackend(database), database.Close, nil
}

// NewStoreFromConfig opens the configured backend and loads the task store.
// A load failure is logged and leaves the store empty but usable.
func NewStoreFromConfig(ctx context.Context, conf *config.Config, fsys afero.Fs) (*store.Store, func() error, error) {
	backend, closeFn, err := NewBackendFromConfig(ctx, conf, fsys)
	if err != nil {
		return nil, closeFn, errors.WithStack(err)
	}

	s := store.New(backend)
	if err := s.Load(ctx); err != nil {
		slog.WarnContext(ctx, "could not load tasks, starting with an empty list",
			slog.String("location", s.Location()),
			slog.Any("error", err),
		)
	}

	return s, closeFn, nil
}

// restoreSnapshot seeds an empty database from an existing snapshot file.
func restoreSnapshot(ctx context.Context, database *db.DB, fsys afero.Fs, path string) error {
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return errors.Wrap(err, "could not check snapshot")
	}
	if !exists {
		return nil
	}

	current, err := database.LoadTasks(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if len(current.Tasks) > 0 {
		return nil
	}

	res, err := database.ImportSnapshot(ctx, fsys, path)
	if err != nil {
		return errors.WithStack(err)
	}
	slog.InfoContext(ctx, "restored tasks from snapshot",
		slog.String("path", path),
		slog.Int("tasks", len(res.Tasks)),
		slog.Int("skipped", len(res.Skipped)),
	)
	return nil
}
