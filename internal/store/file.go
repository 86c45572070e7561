package store

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nick-dorsch/todo/internal/codec"
	"github.com/nick-dorsch/todo/pkg/models"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// FileBackend keeps the task document in a single file on an afero filesystem.
type FileBackend struct {
	fs    afero.Fs
	path  string
	codec codec.Codec
}

// NewFileBackend returns a backend for path. A nil codec is picked from the
// file extension.
func NewFileBackend(fsys afero.Fs, path string, c codec.Codec) *FileBackend {
	if c == nil {
		c = codec.ForPath(path)
	}
	return &FileBackend{fs: fsys, path: path, codec: c}
}

func (b *FileBackend) Location() string {
	return b.path
}

// Load reads and decodes the document. A missing file is created empty.
func (b *FileBackend) Load(ctx context.Context) (codec.Result, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.InfoContext(ctx, "task file not found, creating it", slog.String("path", b.path))
		if err := b.Save(ctx, nil); err != nil {
			return codec.Result{}, err
		}
		return codec.Result{}, nil
	}
	if err != nil {
		return codec.Result{}, errors.Wrapf(err, "failed to read %s", b.path)
	}

	return b.codec.Decode(data), nil
}

// Save encodes tasks and replaces the document atomically via a temporary
// file in the same directory.
func (b *FileBackend) Save(ctx context.Context, tasks []models.Task) error {
	data, err := b.codec.Encode(tasks)
	if err != nil {
		return errors.WithStack(err)
	}

	dir := filepath.Dir(b.path)
	if err := b.fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create task directory")
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(b.path)+".tmp-"+uuid.NewString())
	tmp, err := b.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			b.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "failed to sync temp file")
	}
	if err := tmp.Close(); err != nil {
		tmp = nil
		b.fs.Remove(tmpPath)
		return errors.Wrap(err, "failed to close temp file")
	}
	tmp = nil

	if err := b.fs.Rename(tmpPath, b.path); err != nil {
		b.fs.Remove(tmpPath)
		return errors.Wrap(err, "failed to rename temp file")
	}

	slog.DebugContext(ctx, "saved tasks",
		slog.String("path", b.path),
		slog.String("format", b.codec.Name()),
		slog.Int("count", len(tasks)),
	)
	return nil
}

var _ Backend = &FileBackend{}
