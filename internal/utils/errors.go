package utils

import (
	"errors"
	"fmt"
)

// Common application-specific errors. Storage constraint violations are
// translated into these before leaving the db layer so raw driver errors
// never reach callers.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrStorage       = errors.New("storage failure")
)

// ValidationError reports malformed input. It is terminal for the request,
// unlike ErrStorage which callers may retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for the given field.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
