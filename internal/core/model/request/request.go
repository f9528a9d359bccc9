package request

import (
	"encoding/json"
	"errors"
	"io"

	"taskapp/internal/core/domain"
)

// Nullable records whether a JSON field was present at all, and if so
// whether it was null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n Nullable[T]) IsNull() bool {
	return n.Set && n.Value == nil
}

// TaskRequest is the body accepted by the task endpoints. Unknown fields,
// including any attempt to set the owner, are ignored.
type TaskRequest struct {
	Title       Nullable[string]
	Description Nullable[string]
	Completed   Nullable[bool]
}

func (r TaskRequest) NewTask() domain.NewTask {
	task := domain.NewTask{Description: r.Description.Value}

	if r.Title.Value != nil {
		task.Title = *r.Title.Value
	}

	if r.Completed.Value != nil {
		task.Completed = *r.Completed.Value
	}

	return task
}

func (r TaskRequest) Patch() domain.TaskPatch {
	return domain.TaskPatch{
		Title:          r.Title.Value,
		Description:    r.Description.Value,
		DescriptionSet: r.Description.Set,
		Completed:      r.Completed.Value,
	}
}

// ErrMalformedBody is returned when the body is not a single JSON object.
var ErrMalformedBody = errors.New("malformed JSON body")

// DecodeTask reads a TaskRequest. An empty body decodes as {}. A null title or
// completed, or a value of the wrong JSON type, becomes a validation error on
// that field. Only description may be null.
func DecodeTask(body io.Reader) (TaskRequest, error) {
	var req TaskRequest

	if body == nil {
		return req, nil
	}

	dec := json.NewDecoder(body)

	var fields map[string]json.RawMessage

	if err := dec.Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}

		return TaskRequest{}, ErrMalformedBody
	}

	var trailing json.RawMessage

	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return TaskRequest{}, ErrMalformedBody
	}

	invalid := &domain.ValidationError{}

	decodeField(fields, "title", &req.Title, false, "a string", invalid)
	decodeField(fields, "description", &req.Description, true, "a string", invalid)
	decodeField(fields, "completed", &req.Completed, false, "a boolean", invalid)

	if len(invalid.Fields) > 0 {
		return TaskRequest{}, invalid
	}

	return req, nil
}

func decodeField[T any](fields map[string]json.RawMessage, name string, dst *Nullable[T], nullable bool, kind string, invalid *domain.ValidationError) {
	raw, ok := fields[name]

	if !ok {
		return
	}

	dst.Set = true

	if string(raw) == "null" {
		if !nullable {
			invalid.Add(name, "may not be null")
		}

		return
	}

	var value T

	if err := json.Unmarshal(raw, &value); err != nil {
		invalid.Add(name, "must be "+kind)
		return
	}

	dst.Value = &value
}
