package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAssignmentNotFound is returned when a completion toggle targets a
	// user who is not assigned to the task.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNoUpdatableFields is returned for a partial update that changes nothing.
	ErrNoUpdatableFields = &ValidationError{Message: "No updatable fields"}
)

// ValidationError reports bad client input. Nothing is written when it is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
