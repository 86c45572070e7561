package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nick-dorsch/todo/internal/codec"
	"github.com/nick-dorsch/todo/pkg/models"
	"github.com/spf13/afero"
)

func setClock(t *testing.T, date string) {
	t.Helper()
	ts, err := time.Parse(models.DateLayout, date)
	if err != nil {
		t.Fatalf("Failed to parse date: %v", err)
	}
	old := models.Now
	models.Now = func() time.Time { return ts }
	t.Cleanup(func() { models.Now = old })
}

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	s := New(NewFileBackend(fsys, "tasks.json", nil))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load store: %v", err)
	}
	return s, fsys
}

func mustAdd(t *testing.T, s *Store, priority int, description string) models.Task {
	t.Helper()
	task, err := s.Add(context.Background(), priority, description)
	if err != nil {
		t.Fatalf("Failed to add task: %v", err)
	}
	return task
}

func ids(tasks []models.Task) []int {
	out := make([]int, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func descriptions(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Description
	}
	return out
}

// failingBackend accepts loads and rejects every save.
type failingBackend struct {
	tasks []models.Task
}

func (b *failingBackend) Load(ctx context.Context) (codec.Result, error) {
	return codec.Result{Tasks: b.tasks}, nil
}

func (b *failingBackend) Save(ctx context.Context, tasks []models.Task) error {
	return errors.New("disk full")
}

func (b *failingBackend) Location() string { return "broken" }

func TestAddAssignsSequentialIDs(t *testing.T) {
	s, _ := newTestStore(t)

	for i := 1; i <= 5; i++ {
		task := mustAdd(t, s, 3, "task")
		if task.ID != i {
			t.Errorf("Expected id %d, got %d", i, task.ID)
		}
	}

	tasks, err := s.List(FilterAll)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	got := ids(tasks)
	for i, id := range got {
		if id != i+1 {
			t.Fatalf("Expected ids 1..5, got %v", got)
		}
	}
}

func TestAddRejectsEmptyDescription(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Add(context.Background(), 3, "   ")
	if !errors.Is(err, ErrInvalidDescription) {
		t.Fatalf("Expected ErrInvalidDescription, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d tasks", s.Len())
	}
}

func TestPriorityIsClamped(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	low := mustAdd(t, s, 0, "low")
	high := mustAdd(t, s, 15, "high")
	if low.Priority != 1 || high.Priority != 10 {
		t.Errorf("Expected clamped priorities 1 and 10, got %d and %d", low.Priority, high.Priority)
	}

	if err := s.Update(ctx, 1, -4, "low"); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if err := s.Update(ctx, 2, 99, "high"); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	for _, tc := range []struct{ id, want int }{{1, 1}, {2, 10}} {
		task, err := s.Get(tc.id)
		if err != nil {
			t.Fatalf("Failed to get task: %v", err)
		}
		if task.Priority != tc.want {
			t.Errorf("Task %d: expected priority %d, got %d", tc.id, tc.want, task.Priority)
		}
	}
}

func TestDeleteRenumbersPreservingOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for _, d := range []string{"a", "b", "c", "d"} {
		mustAdd(t, s, 5, d)
	}

	if err := s.Delete(ctx, 2); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	tasks, _ := s.List(FilterAll)
	if got := strings.Join(descriptions(tasks), ""); got != "acd" {
		t.Errorf("Expected order acd, got %s", got)
	}
	for i, task := range tasks {
		if task.ID != i+1 {
			t.Errorf("Expected dense ids, got %v", ids(tasks))
			break
		}
	}

	if err := s.Delete(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown id, got %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("Expected 3 tasks after failed delete, got %d", s.Len())
	}
}

func TestScenarioDeleteFirstOfTwo(t *testing.T) {
	s, _ := newTestStore(t)
	mustAdd(t, s, 5, "write spec")
	mustAdd(t, s, 1, "urgent fix")

	if err := s.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	task, err := s.Get(1)
	if err != nil {
		t.Fatalf("Failed to get task 1: %v", err)
	}
	if task.Description != "urgent fix" {
		t.Errorf("Expected former task 2 to become id 1, got %q", task.Description)
	}
	if _, err := s.Get(2); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected id 2 to be gone, got %v", err)
	}
}

func TestScenarioPriorityList(t *testing.T) {
	s, _ := newTestStore(t)

	first := mustAdd(t, s, 5, "write spec")
	if first.ID != 1 || first.Priority != 5 || first.Status != models.TaskStatusTodo {
		t.Fatalf("Unexpected first task: %+v", first)
	}
	second := mustAdd(t, s, 1, "urgent fix")
	if second.ID != 2 || second.Priority != 1 {
		t.Fatalf("Unexpected second task: %+v", second)
	}

	tasks, err := s.List("PRIORITY")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	got := ids(tasks)
	if len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("Expected most urgent first [2 1], got %v", got)
	}
}

func TestPriorityListIsStable(t *testing.T) {
	s, _ := newTestStore(t)
	mustAdd(t, s, 3, "a")
	mustAdd(t, s, 1, "b")
	mustAdd(t, s, 3, "c")
	mustAdd(t, s, 1, "d")

	tasks, _ := s.List("priority")
	if got := strings.Join(descriptions(tasks), ""); got != "bdac" {
		t.Errorf("Expected bdac, got %s", got)
	}
}

func TestScenarioStatusComplete(t *testing.T) {
	setClock(t, "2024-03-01")
	s, _ := newTestStore(t)
	mustAdd(t, s, 5, "write spec")

	setClock(t, "2024-03-09")
	if err := s.UpdateStatus(context.Background(), 1, "complete"); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}

	task, _ := s.Get(1)
	if task.Status != models.TaskStatusComplete {
		t.Errorf("Expected COMPLETE, got %s", task.Status)
	}
	if task.Updated != "2024-03-09" {
		t.Errorf("Expected updated 2024-03-09, got %s", task.Updated)
	}
	if task.Created != "2024-03-01" {
		t.Errorf("Expected created 2024-03-01, got %s", task.Created)
	}
}

func TestUpdateStatusRejectsBogus(t *testing.T) {
	setClock(t, "2024-03-01")
	s, _ := newTestStore(t)
	mustAdd(t, s, 5, "write spec")

	setClock(t, "2024-03-02")
	err := s.UpdateStatus(context.Background(), 1, "BOGUS")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("Expected ErrInvalidStatus, got %v", err)
	}

	task, _ := s.Get(1)
	if task.Status != models.TaskStatusTodo {
		t.Errorf("Expected status unchanged, got %s", task.Status)
	}
	if task.Updated != "2024-03-01" {
		t.Errorf("Expected updated unchanged, got %s", task.Updated)
	}

	if err := s.UpdateStatus(context.Background(), 7, "TODO"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	setClock(t, "2024-03-01")
	s, _ := newTestStore(t)
	mustAdd(t, s, 5, "old")

	setClock(t, "2024-03-04")
	if err := s.Update(context.Background(), 1, 2, "new"); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	task, _ := s.Get(1)
	if task.Description != "new" || task.Priority != 2 || task.Updated != "2024-03-04" {
		t.Errorf("Unexpected task after update: %+v", task)
	}

	if err := s.Update(context.Background(), 9, 2, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := s.Update(context.Background(), 1, 2, ""); !errors.Is(err, ErrInvalidDescription) {
		t.Errorf("Expected ErrInvalidDescription, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, s, 5, "a")
	mustAdd(t, s, 5, "b")
	mustAdd(t, s, 5, "c")
	s.UpdateStatus(ctx, 2, "IN_PROGRESS")
	s.UpdateStatus(ctx, 3, "COMPLETE")

	tests := map[string]string{
		"ALL":         "abc",
		"all":         "abc",
		"":            "abc",
		"TODO":        "a",
		"in_progress": "b",
		"Complete":    "c",
	}
	for filter, want := range tests {
		tasks, err := s.List(filter)
		if err != nil {
			t.Errorf("List(%q) failed: %v", filter, err)
			continue
		}
		if got := strings.Join(descriptions(tasks), ""); got != want {
			t.Errorf("List(%q) = %s, want %s", filter, got, want)
		}
	}
}

func TestListInvalidFilter(t *testing.T) {
	s, _ := newTestStore(t)
	mustAdd(t, s, 5, "a")

	tasks, err := s.List("URGENT")
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("Expected ErrInvalidFilter, got %v", err)
	}
	if tasks != nil {
		t.Errorf("Expected no tasks on invalid filter, got %v", tasks)
	}

	var ferr *FilterError
	if !errors.As(err, &ferr) {
		t.Fatalf("Expected *FilterError, got %T", err)
	}
	for _, valid := range ValidFilters() {
		if !strings.Contains(err.Error(), valid) {
			t.Errorf("Expected error message to list %s: %s", valid, err)
		}
	}
}

func TestListReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	mustAdd(t, s, 5, "original")

	tasks, _ := s.List(FilterAll)
	tasks[0].Description = "mutated"

	task, _ := s.Get(1)
	if task.Description != "original" {
		t.Errorf("Expected store to be unaffected by caller mutation, got %q", task.Description)
	}
}

func TestStats(t *testing.T) {
	s, _ := newTestStore(t)
	mustAdd(t, s, 5, "a")
	mustAdd(t, s, 5, "b")
	s.UpdateStatus(context.Background(), 2, "COMPLETE")

	stats := s.Stats()
	if stats.Total != 2 {
		t.Errorf("Expected total 2, got %d", stats.Total)
	}
	if stats.ByStatus[models.TaskStatusTodo] != 1 || stats.ByStatus[models.TaskStatusComplete] != 1 || stats.ByStatus[models.TaskStatusInProgress] != 0 {
		t.Errorf("Unexpected counts: %v", stats.ByStatus)
	}
}

func TestFailedSaveLeavesMemoryUnchanged(t *testing.T) {
	backend := &failingBackend{tasks: []models.Task{
		{ID: 1, Priority: 4, Description: "kept", Status: models.TaskStatusTodo, Created: "2024-01-01", Updated: "2024-01-01"},
	}}
	s := New(backend)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	if _, err := s.Add(ctx, 3, "lost"); !errors.Is(err, ErrPersist) {
		t.Errorf("Expected ErrPersist from Add, got %v", err)
	}
	if err := s.Update(ctx, 1, 9, "changed"); !errors.Is(err, ErrPersist) {
		t.Errorf("Expected ErrPersist from Update, got %v", err)
	}
	if err := s.UpdateStatus(ctx, 1, "COMPLETE"); !errors.Is(err, ErrPersist) {
		t.Errorf("Expected ErrPersist from UpdateStatus, got %v", err)
	}
	if err := s.Delete(ctx, 1); !errors.Is(err, ErrPersist) {
		t.Errorf("Expected ErrPersist from Delete, got %v", err)
	}
	if err := s.Save(ctx); !errors.Is(err, ErrPersist) {
		t.Errorf("Expected ErrPersist from Save, got %v", err)
	}

	tasks, _ := s.List(FilterAll)
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	if tasks[0] != backend.tasks[0] {
		t.Errorf("Expected task unchanged, got %+v", tasks[0])
	}
}

func TestLoadRenumbersSparseIDs(t *testing.T) {
	backend := &failingBackend{tasks: []models.Task{
		{ID: 3, Priority: 4, Description: "a", Status: models.TaskStatusTodo, Created: "2024-01-01", Updated: "2024-01-01"},
		{ID: 7, Priority: 4, Description: "b", Status: models.TaskStatusTodo, Created: "2024-01-01", Updated: "2024-01-01"},
		{ID: 7, Priority: 4, Description: "c", Status: models.TaskStatusTodo, Created: "2024-01-01", Updated: "2024-01-01"},
	}}
	s := New(backend)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	tasks, _ := s.List(FilterAll)
	if got := ids(tasks); len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("Expected ids [1 2 3], got %v", got)
	}
	if got := strings.Join(descriptions(tasks), ""); got != "abc" {
		t.Errorf("Expected document order kept, got %s", got)
	}
}

func TestLoadSkipsMalformedRecords(t *testing.T) {
	fsys := afero.NewMemMapFs()
	doc := `[
  {"id": 1, "priority": 2, "description": "ok", "status": "TODO", "created": "2024-01-01", "updated": "2024-01-01"},
  {"id": 2, "priority": 2, "description": "bad", "status": "WAITING", "created": "2024-01-01", "updated": "2024-01-01"},
  {"id": 3, "priority": 2, "description": "also ok", "status": "COMPLETE", "created": "2024-01-01", "updated": "2024-01-05"}
]`
	if err := afero.WriteFile(fsys, "tasks.json", []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	s := New(NewFileBackend(fsys, "tasks.json", nil))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	tasks, _ := s.List(FilterAll)
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[1].ID != 2 || tasks[1].Description != "also ok" {
		t.Errorf("Expected second valid record renumbered to 2, got %+v", tasks[1])
	}
	if tasks[1].Updated != "2024-01-05" {
		t.Errorf("Expected persisted updated date restored, got %s", tasks[1].Updated)
	}
}

func TestLoadCorruptDocumentStartsEmpty(t *testing.T) {
	fsys := afero.NewMemMapFs()
	afero.WriteFile(fsys, "tasks.json", []byte(`{"not": "a list"}`), 0644)

	s := New(NewFileBackend(fsys, "tasks.json", nil))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Expected corrupt document to load empty without error, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d", s.Len())
	}
}

func TestPersistenceAcrossStores(t *testing.T) {
	ctx := context.Background()
	for _, path := range []string{"data/tasks.json", "data/tasks.yaml"} {
		t.Run(path, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			first := New(NewFileBackend(fsys, path, nil))
			if err := first.Load(ctx); err != nil {
				t.Fatalf("Failed to load: %v", err)
			}
			mustAdd(t, first, 5, `say "hi", then \ leave`)
			mustAdd(t, first, 1, "urgent\nfix")
			mustAdd(t, first, 3, "gone")
			first.UpdateStatus(ctx, 2, "IN_PROGRESS")
			first.Delete(ctx, 3)

			second := New(NewFileBackend(fsys, path, nil))
			if err := second.Load(ctx); err != nil {
				t.Fatalf("Failed to reload: %v", err)
			}

			want, _ := first.List(FilterAll)
			got, _ := second.List(FilterAll)
			if len(got) != len(want) {
				t.Fatalf("Expected %d tasks after reload, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("Task %d mismatch\nwant: %+v\ngot:  %+v", i, want[i], got[i])
				}
			}
		})
	}
}

func TestReplaceRenumbersAndPersists(t *testing.T) {
	s, fsys := newTestStore(t)
	mustAdd(t, s, 5, "old")
	ctx := context.Background()

	incoming := []models.Task{
		{ID: 9, Priority: 2, Description: "first", Status: models.TaskStatusComplete, Created: "2024-01-01", Updated: "2024-01-03"},
		{ID: 4, Priority: 7, Description: "second", Status: models.TaskStatusTodo, Created: "2024-01-02", Updated: "2024-01-02"},
	}
	if err := s.Replace(ctx, incoming); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}

	tasks, _ := s.List(FilterAll)
	if got := ids(tasks); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected ids [1 2], got %v", got)
	}
	if tasks[0].Updated != "2024-01-03" {
		t.Errorf("Expected dates preserved, got %+v", tasks[0])
	}

	reloaded := New(NewFileBackend(fsys, "tasks.json", nil))
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Errorf("Expected 2 persisted tasks, got %d", reloaded.Len())
	}
}

func TestReplaceRejectsInvalidTask(t *testing.T) {
	s, _ := newTestStore(t)
	mustAdd(t, s, 5, "kept")

	err := s.Replace(context.Background(), []models.Task{
		{Priority: 2, Description: "bad", Status: "DONE", Created: "2024-01-01", Updated: "2024-01-01"},
	})
	if err == nil {
		t.Fatal("Expected error for invalid status")
	}
	if s.Len() != 1 {
		t.Errorf("Expected collection untouched, got %d tasks", s.Len())
	}
}
