// Package store owns the in-memory task collection and keeps it persisted.
//
// Ids are dense: with N tasks they are exactly 1..N in list order. Every
// mutation is staged on a copy of the collection, saved through the Backend,
// and only becomes visible once the save succeeded.
package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/nick-dorsch/todo/internal/codec"
	"github.com/nick-dorsch/todo/pkg/models"
	"github.com/pkg/errors"
)

// Backend loads and saves the whole task collection.
type Backend interface {
	Load(ctx context.Context) (codec.Result, error)
	Save(ctx context.Context, tasks []models.Task) error
	Location() string
}

type Store struct {
	mu      sync.Mutex
	backend Backend
	tasks   []*models.Task
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Location returns where the backend persists tasks.
func (s *Store) Location() string {
	return s.backend.Location()
}

// Load replaces the in-memory collection with the persisted one. Malformed
// records are skipped. On error the store is left empty and usable.
func (s *Store) Load(ctx context.Context) error {
	res, err := s.backend.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = nil
	if err != nil {
		return errors.Wrapf(err, "failed to load tasks from %s", s.backend.Location())
	}

	if res.DocumentErr != nil {
		slog.WarnContext(ctx, "task document is not a task list, starting empty",
			slog.String("location", s.backend.Location()),
			slog.Any("error", res.DocumentErr),
		)
	}
	for _, skip := range res.Skipped {
		slog.InfoContext(ctx, "skipped malformed task record",
			slog.Int("index", skip.Index),
			slog.String("reason", skip.Reason),
		)
	}

	tasks := make([]*models.Task, len(res.Tasks))
	for i := range res.Tasks {
		t := res.Tasks[i]
		tasks[i] = &t
	}
	if renumber(tasks) {
		slog.InfoContext(ctx, "renumbered task ids", slog.Int("count", len(tasks)))
	}

	s.tasks = tasks
	return nil
}

// Save writes the current collection through the backend.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(ctx, values(s.tasks)); err != nil {
		return persistFailed(s.backend.Location(), err)
	}
	return nil
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id int) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Task{}, notFound(id)
	}
	return *s.tasks[idx], nil
}

// Add appends a new task with the next sequential id.
func (s *Store) Add(ctx context.Context, priority int, description string) (models.Task, error) {
	if strings.TrimSpace(description) == "" {
		return models.Task{}, errors.WithStack(ErrInvalidDescription)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := clone(s.tasks)
	t := models.NewTask(priority, description)
	t.ID = len(next) + 1
	next = append(next, t)

	if err := s.commit(ctx, next); err != nil {
		return models.Task{}, err
	}
	return *t, nil
}

// Delete removes the task and renumbers the remaining ones to stay dense.
func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return notFound(id)
	}

	next := clone(s.tasks)
	next = append(next[:idx], next[idx+1:]...)
	renumber(next)

	return s.commit(ctx, next)
}

// Update sets both priority and description of a task.
func (s *Store) Update(ctx context.Context, id int, priority int, description string) error {
	if strings.TrimSpace(description) == "" {
		return errors.WithStack(ErrInvalidDescription)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return notFound(id)
	}

	next := clone(s.tasks)
	next[idx].SetPriority(priority)
	next[idx].SetDescription(description)

	return s.commit(ctx, next)
}

// UpdateStatus parses the status token and applies it to the task.
func (s *Store) UpdateStatus(ctx context.Context, id int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return notFound(id)
	}

	parsed, err := models.ParseStatus(status)
	if err != nil {
		return errors.WithStack(err)
	}

	next := clone(s.tasks)
	if err := next[idx].SetStatus(parsed); err != nil {
		return errors.WithStack(err)
	}

	return s.commit(ctx, next)
}

// Replace swaps the whole collection for tasks, renumbering ids 1..N in the
// given order. Invalid tasks are rejected before anything is saved.
func (s *Store) Replace(ctx context.Context, tasks []models.Task) error {
	next := make([]*models.Task, len(tasks))
	for i := range tasks {
		t := tasks[i]
		t.ID = i + 1
		if err := t.Validate(); err != nil {
			return errors.Wrapf(err, "task %d", i+1)
		}
		next[i] = &t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, next)
}

// List returns copies of the tasks selected by filter: ALL, a status name or
// PRIORITY (all tasks, most urgent first).
func (s *Store) List(filterToken string) ([]models.Task, error) {
	f, err := parseFilter(filterToken)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return f.apply(s.tasks), nil
}

type Stats struct {
	Total    int
	ByStatus map[models.TaskStatus]int
}

// Stats counts tasks per status.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Total:    len(s.tasks),
		ByStatus: make(map[models.TaskStatus]int, len(models.Statuses)),
	}
	for _, st := range models.Statuses {
		stats.ByStatus[st] = 0
	}
	for _, t := range s.tasks {
		stats.ByStatus[t.Status]++
	}
	return stats
}

// commit persists next and makes it the live collection only if the save succeeded.
func (s *Store) commit(ctx context.Context, next []*models.Task) error {
	if err := s.backend.Save(ctx, values(next)); err != nil {
		return persistFailed(s.backend.Location(), err)
	}
	s.tasks = next
	return nil
}

func (s *Store) indexOf(id int) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// renumber assigns ids 1..N in list order and reports whether any id changed.
func renumber(tasks []*models.Task) bool {
	changed := false
	for i, t := range tasks {
		if t.ID != i+1 {
			t.ID = i + 1
			changed = true
		}
	}
	return changed
}

func clone(tasks []*models.Task) []*models.Task {
	out := make([]*models.Task, len(tasks))
	for i, t := range tasks {
		c := *t
		out[i] = &c
	}
	return out
}

func values(tasks []*models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = *t
	}
	return out
}
