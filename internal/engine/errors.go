package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrInvalidStatus = errors.New("invalid status")
	ErrCancelled     = errors.New("cancelled by user")
	ErrTransition    = errors.New("transition not allowed")
)

// ValidationError names the offending field. It matches ErrValidation
// through errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
