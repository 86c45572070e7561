package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusComplete   TaskStatus = "COMPLETE"
)

// Statuses lists the valid statuses in lifecycle order.
var Statuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusComplete}

const (
	MinPriority = 1
	MaxPriority = 10

	// DateLayout is the calendar date format used for Created and Updated.
	DateLayout = "2006-01-02"
)

var ErrInvalidStatus = errors.New("invalid status")

// Now is the clock used to stamp dates. Tests replace it.
var Now = time.Now

// Today returns the current date formatted with DateLayout.
func Today() string {
	return Now().Format(DateLayout)
}

type Task struct {
	ID          int        `json:"id" yaml:"id"`
	Priority    int        `json:"priority" yaml:"priority"`
	Description string     `json:"description" yaml:"description"`
	Status      TaskStatus `json:"status" yaml:"status"`
	Created     string     `json:"created" yaml:"created"`
	Updated     string     `json:"updated" yaml:"updated"`
}

// NewTask builds a TODO task dated today. The id is assigned by the store.
func NewTask(priority int, description string) *Task {
	today := Today()
	return &Task{
		Priority:    ClampPriority(priority),
		Description: description,
		Status:      TaskStatusTodo,
		Created:     today,
		Updated:     today,
	}
}

// ClampPriority forces p into [MinPriority, MaxPriority].
func ClampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// mutate applies fn and stamps Updated. Every user-facing setter goes through here.
func (t *Task) mutate(fn func()) {
	fn()
	t.Updated = Today()
}

func (t *Task) SetPriority(p int) {
	t.mutate(func() { t.Priority = ClampPriority(p) })
}

func (t *Task) SetDescription(d string) {
	t.mutate(func() { t.Description = d })
}

// SetStatus rejects anything outside Statuses and leaves the task untouched in that case.
func (t *Task) SetStatus(s TaskStatus) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	t.mutate(func() { t.Status = s })
	return nil
}

func (t *Task) MarkInProgress() {
	t.mutate(func() { t.Status = TaskStatusInProgress })
}

func (t *Task) MarkComplete() {
	t.mutate(func() { t.Status = TaskStatusComplete })
}

// Restore sets persisted dates without restamping. Only decoders call it.
func (t *Task) Restore(created, updated string) {
	t.Created = created
	t.Updated = updated
}

// Validate checks the record invariants that can be verified on a single task.
func (t Task) Validate() error {
	if t.ID < 1 {
		return fmt.Errorf("id must be positive, got %d", t.ID)
	}
	if t.Priority < MinPriority || t.Priority > MaxPriority {
		return fmt.Errorf("priority %d out of range [%d, %d]", t.Priority, MinPriority, MaxPriority)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if _, err := time.Parse(DateLayout, t.Created); err != nil {
		return fmt.Errorf("invalid created date %q: %w", t.Created, err)
	}
	if _, err := time.Parse(DateLayout, t.Updated); err != nil {
		return fmt.Errorf("invalid updated date %q: %w", t.Updated, err)
	}
	if t.Updated < t.Created {
		return fmt.Errorf("updated %s precedes created %s", t.Updated, t.Created)
	}
	return nil
}

func (s TaskStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus accepts status tokens case-insensitively; '-' and spaces fold to '_'.
func ParseStatus(token string) (TaskStatus, error) {
	norm := strings.ToUpper(strings.TrimSpace(token))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	s := TaskStatus(norm)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q (use TODO, IN_PROGRESS or COMPLETE)", ErrInvalidStatus, token)
	}
	return s, nil
}
