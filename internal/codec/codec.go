// Package codec converts task collections to and from structured text documents.
//
// Encoding is stable and human readable. Decoding is tolerant: a record that is
// missing a field, carries an unparseable date or names an unknown status is
// skipped without failing the rest of the document.
package codec

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nick-dorsch/todo/pkg/models"
	"github.com/pkg/errors"
)

// Codec encodes and decodes a whole task document.
type Codec interface {
	Name() string
	Encode(tasks []models.Task) ([]byte, error)
	Decode(data []byte) Result
}

// Skip describes a record dropped while decoding.
type Skip struct {
	Index  int
	Reason string
}

// Result is the outcome of decoding a document. Decoding never fails as a whole:
// an unreadable document yields no tasks and DocumentErr set.
type Result struct {
	Tasks       []models.Task
	Skipped     []Skip
	DocumentErr error
}

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ForPath picks the codec matching the file extension, JSON by default.
func ForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML{}
	default:
		return JSON{}
	}
}

// ByName resolves an explicit format name.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatJSON:
		return JSON{}, nil
	case FormatYAML, "yml":
		return YAML{}, nil
	default:
		return nil, errors.Errorf("unknown document format %q", name)
	}
}

// record mirrors models.Task with pointer fields so absent keys can be told
// apart from zero values.
type record struct {
	ID          *int    `json:"id" yaml:"id"`
	Priority    *int    `json:"priority" yaml:"priority"`
	Description *string `json:"description" yaml:"description"`
	Status      *string `json:"status" yaml:"status"`
	Created     *string `json:"created" yaml:"created"`
	Updated     *string `json:"updated" yaml:"updated"`
}

func (r record) task() (models.Task, error) {
	switch {
	case r.ID == nil:
		return models.Task{}, errors.New("missing field id")
	case r.Priority == nil:
		return models.Task{}, errors.New("missing field priority")
	case r.Description == nil:
		return models.Task{}, errors.New("missing field description")
	case r.Status == nil:
		return models.Task{}, errors.New("missing field status")
	case r.Created == nil:
		return models.Task{}, errors.New("missing field created")
	case r.Updated == nil:
		return models.Task{}, errors.New("missing field updated")
	}

	status := models.TaskStatus(*r.Status)
	if !status.Valid() {
		return models.Task{}, errors.Errorf("unknown status %q", *r.Status)
	}
	for _, d := range []string{*r.Created, *r.Updated} {
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return models.Task{}, errors.Errorf("unparseable date %q", d)
		}
	}

	t := models.Task{
		ID:          *r.ID,
		Priority:    models.ClampPriority(*r.Priority),
		Description: *r.Description,
		Status:      status,
	}
	t.Restore(*r.Created, *r.Updated)

	if err := t.Validate(); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (res *Result) skip(index int, err error) {
	res.Skipped = append(res.Skipped, Skip{Index: index, Reason: err.Error()})
}

func (s Skip) String() string {
	return fmt.Sprintf("record %d: %s", s.Index, s.Reason)
}
