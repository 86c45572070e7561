package codec

import (
	"bytes"
	"encoding/json"

	"github.com/nick-dorsch/todo/pkg/models"
	"github.com/pkg/errors"
)

// JSON stores tasks as an indented JSON array of objects.
type JSON struct{}

func (JSON) Name() string { return FormatJSON }

func (JSON) Encode(tasks []models.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return nil, errors.Wrap(err, "failed to encode tasks")
	}
	return buf.Bytes(), nil
}

func (JSON) Decode(data []byte) Result {
	var res Result
	if len(bytes.TrimSpace(data)) == 0 {
		return res
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		res.DocumentErr = errors.Wrap(err, "document is not a JSON array")
		return res
	}

	for i, raw := range raws {
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			res.skip(i, err)
			continue
		}
		t, err := rec.task()
		if err != nil {
			res.skip(i, err)
			continue
		}
		res.Tasks = append(res.Tasks, t)
	}
	return res
}

var _ Codec = JSON{}
