package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	embedsql "github.com/nick-dorsch/todo/embed/sql"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
	path     string
	onChange func(ctx context.Context)
}

// SetOnChange registers a hook that runs after every successful write.
func (db *DB) SetOnChange(fn func(ctx context.Context)) {
	db.onChange = fn
}

func (db *DB) notifyChange(ctx context.Context) {
	if db.onChange != nil {
		db.onChange(ctx)
	}
}

// Open opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// WAL mode for better crash safety
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	return &DB{DB: db, path: path}, nil
}

func (db *DB) Migrate(ctx context.Context, schema string) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "migration failed")
	}
	return nil
}

func (db *DB) Init(ctx context.Context) error {
	return db.Migrate(ctx, embedsql.Schema)
}

// Path returns the database file the connection was opened on.
func (db *DB) Path() string {
	return db.path
}
