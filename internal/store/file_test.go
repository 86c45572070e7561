package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nick-dorsch/todo/internal/codec"
	"github.com/nick-dorsch/todo/pkg/models"
	"github.com/spf13/afero"
)

func TestFileBackendCreatesMissingFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	b := NewFileBackend(fsys, "nested/dir/tasks.json", nil)

	res, err := b.Load(context.Background())
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if len(res.Tasks) != 0 {
		t.Errorf("Expected no tasks, got %d", len(res.Tasks))
	}

	data, err := afero.ReadFile(fsys, "nested/dir/tasks.json")
	if err != nil {
		t.Fatalf("Expected file to be created: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Expected empty document, got %q", data)
	}
}

func TestFileBackendSaveLeavesNoTempFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	b := NewFileBackend(fsys, "tasks.json", codec.JSON{})
	ctx := context.Background()

	tasks := []models.Task{{ID: 1, Priority: 2, Description: "x", Status: models.TaskStatusTodo, Created: "2024-01-01", Updated: "2024-01-01"}}
	for i := 0; i < 3; i++ {
		if err := b.Save(ctx, tasks); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
	}

	entries, err := afero.ReadDir(fsys, ".")
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "tasks.json" {
		names := []string{}
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only tasks.json, got %v", names)
	}

	res, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if len(res.Tasks) != 1 || res.Tasks[0] != tasks[0] {
		t.Errorf("Unexpected tasks after reload: %+v", res.Tasks)
	}
}

func TestFileBackendExplicitCodecOverridesExtension(t *testing.T) {
	fsys := afero.NewMemMapFs()
	b := NewFileBackend(fsys, "tasks.txt", codec.YAML{})
	tasks := []models.Task{{ID: 1, Priority: 2, Description: "x", Status: models.TaskStatusTodo, Created: "2024-01-01", Updated: "2024-01-01"}}
	if err := b.Save(context.Background(), tasks); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	data, _ := afero.ReadFile(fsys, "tasks.txt")
	if !strings.HasPrefix(string(data), "- id: 1") {
		t.Errorf("Expected YAML document, got:\n%s", data)
	}
}

func TestFileBackendReadOnlyFilesystem(t *testing.T) {
	base := afero.NewMemMapFs()
	ctx := context.Background()

	s := New(NewFileBackend(afero.NewReadOnlyFs(base), "tasks.json", nil))
	if err := s.Load(ctx); err == nil {
		t.Fatal("Expected load to fail when the file cannot be created")
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store after failed load, got %d", s.Len())
	}

	_, err := s.Add(ctx, 1, "cannot persist")
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("Expected ErrPersist, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Expected add to be rolled back, got %d tasks", s.Len())
	}
}
