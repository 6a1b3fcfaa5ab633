package services

import (
	"errors"
	"fmt"
	"strings"

	"almacenadora/backend/internal/repositories"
	"almacenadora/backend/internal/validation"
)

var (
	// ErrNotFound means no task matches the requested id.
	ErrNotFound = errors.New("tarea no encontrada")
	// ErrPersistence wraps every failure of the underlying store.
	ErrPersistence = errors.New("persistence error")
)

// ValidationError lists the fields a payload got wrong.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "invalid fields: " + strings.Join(names, ", ")
}

func newValidationError(fields ...validation.FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// classify maps a repository error onto the service taxonomy.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
