package response

import (
	"time"

	"taskapp/internal/core/domain"
)

type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	User        string    `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromTask(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		User:        t.OwnerUsername,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromTasks(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))

	for _, t := range tasks {
		out = append(out, FromTask(t))
	}

	return out
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ResponseError struct {
	Code   string            `json:"code"`
	Errors []ValidationError `json:"errors"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}

func FromFieldErrors(fields []domain.FieldError) []ValidationError {
	out := make([]ValidationError, 0, len(fields))

	for _, f := range fields {
		out = append(out, ValidationError{Field: f.Field, Message: f.Message})
	}

	return out
}
