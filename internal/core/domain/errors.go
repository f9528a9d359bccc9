package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrIntegrity       = errors.New("integrity violation")
)

type FieldError struct {
	Field   string
	Message string
}

type ValidationError struct {
	Fields []FieldError
	cause  error
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// WithCause attaches an underlying error so errors.Is can still see it.
func (e *ValidationError) WithCause(err error) *ValidationError {
	e.cause = err
	return e
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}

	return false
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))

	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError

	if errors.As(err, &ve) {
		return ve, true
	}

	return nil, false
}
