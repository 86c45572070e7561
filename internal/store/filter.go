package store

import (
	"sort"
	"strings"

	"github.com/nick-dorsch/todo/pkg/models"
)

const (
	FilterAll      = "ALL"
	FilterPriority = "PRIORITY"
)

// ValidFilters returns every filter token List accepts.
func ValidFilters() []string {
	filters := []string{FilterAll}
	for _, s := range models.Statuses {
		filters = append(filters, string(s))
	}
	return append(filters, FilterPriority)
}

type filter struct {
	status     models.TaskStatus
	byPriority bool
}

func parseFilter(token string) (filter, error) {
	norm := strings.ToUpper(strings.TrimSpace(token))
	switch norm {
	case "", FilterAll:
		return filter{}, nil
	case FilterPriority:
		return filter{byPriority: true}, nil
	}

	status, err := models.ParseStatus(token)
	if err != nil {
		return filter{}, &FilterError{Filter: token}
	}
	return filter{status: status}, nil
}

func (f filter) apply(tasks []*models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.status != "" && t.Status != f.status {
			continue
		}
		out = append(out, *t)
	}

	// Most urgent first: priority 1 sorts before 10. Ties keep id order.
	if f.byPriority {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority < out[j].Priority
		})
	}
	return out
}
