package store

import (
	"fmt"
	"strings"

	"github.com/nick-dorsch/todo/pkg/models"
	"github.com/pkg/errors"
)

var (
	ErrNotFound           = errors.New("task not found")
	ErrInvalidStatus      = models.ErrInvalidStatus
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrInvalidDescription = errors.New("description is required")
	ErrPersist            = errors.New("failed to persist tasks")
)

// FilterError reports an unrecognised list filter together with the valid ones.
type FilterError struct {
	Filter string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter %q, use one of: %s", e.Filter, strings.Join(ValidFilters(), ", "))
}

func (e *FilterError) Unwrap() error {
	return ErrInvalidFilter
}

func notFound(id int) error {
	return errors.Wrapf(ErrNotFound, "id %d", id)
}

func persistFailed(location string, err error) error {
	return errors.WithStack(fmt.Errorf("%w to %s: %w", ErrPersist, location, err))
}
