package db

import (
	"context"

	"github.com/nick-dorsch/todo/internal/codec"
	"github.com/nick-dorsch/todo/internal/store"
	"github.com/nick-dorsch/todo/pkg/models"
	"github.com/pkg/errors"
)

// LoadTasks returns every row ordered by id. Rows that violate the task
// invariants are reported as skipped instead of failing the load.
func (db *DB) LoadTasks(ctx context.Context) (codec.Result, error) {
	query := `
		SELECT id, priority, description, status, created, updated
		FROM tasks
		ORDER BY id ASC
	`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return codec.Result{}, errors.Wrap(err, "failed to query tasks")
	}
	defer rows.Close()

	var res codec.Result
	for i := 0; rows.Next(); i++ {
		var t models.Task
		var created, updated string
		if err := rows.Scan(&t.ID, &t.Priority, &t.Description, &t.Status, &created, &updated); err != nil {
			res.Skipped = append(res.Skipped, codec.Skip{Index: i, Reason: err.Error()})
			continue
		}
		t.Priority = models.ClampPriority(t.Priority)
		t.Restore(created, updated)

		if err := t.Validate(); err != nil {
			res.Skipped = append(res.Skipped, codec.Skip{Index: i, Reason: err.Error()})
			continue
		}
		res.Tasks = append(res.Tasks, t)
	}

	if err := rows.Err(); err != nil {
		return codec.Result{}, errors.Wrap(err, "rows error")
	}

	return res, nil
}

// ReplaceTasks swaps the table contents for tasks in a single transaction.
func (db *DB) ReplaceTasks(ctx context.Context, tasks []models.Task) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return errors.Wrap(err, "failed to clear tasks")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (id, priority, description, status, created, updated)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, t := range tasks {
		if _, err := stmt.ExecContext(ctx, t.ID, t.Priority, t.Description, string(t.Status), t.Created, t.Updated); err != nil {
			return errors.Wrapf(err, "failed to insert task %d", t.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit tasks")
	}

	db.notifyChange(ctx)
	return nil
}

// Backend adapts a DB to store.Backend.
type Backend struct {
	db *DB
}

func NewBackend(database *DB) *Backend {
	return &Backend{db: database}
}

func (b *Backend) Load(ctx context.Context) (codec.Result, error) {
	return b.db.LoadTasks(ctx)
}

func (b *Backend) Save(ctx context.Context, tasks []models.Task) error {
	return b.db.ReplaceTasks(ctx, tasks)
}

func (b *Backend) Location() string {
	return b.db.Path()
}

var _ store.Backend = &Backend{}
