package codec

import (
	"bytes"

	"github.com/nick-dorsch/todo/pkg/models"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// YAML stores tasks as a top-level sequence of mappings.
type YAML struct{}

func (YAML) Name() string { return FormatYAML }

func (YAML) Encode(tasks []models.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tasks); err != nil {
		return nil, errors.Wrap(err, "failed to encode tasks")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to flush yaml encoder")
	}
	return buf.Bytes(), nil
}

func (YAML) Decode(data []byte) Result {
	var res Result
	if len(bytes.TrimSpace(data)) == 0 {
		return res
	}

	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		res.DocumentErr = errors.Wrap(err, "document is not a YAML sequence")
		return res
	}

	for i := range nodes {
		var rec record
		if err := nodes[i].Decode(&rec); err != nil {
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

var _ Codec = YAML{}
