package store

import (
	"errors"
	"fmt"
)

// ValidationError reports a caller-supplied value outside its documented
// range or shape. It is always returned before any statement is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func newRangeError(field string, value, min, max float64) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value %v must be between %v and %v", value, min, max),
	}
}

// NotFoundError reports a singleton record that was expected to exist after
// bootstrap. Hitting it means the table was emptied out of band, not a
// normal flow.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// PersistenceError wraps an underlying storage failure with the operation
// that produced it. The cause is preserved for errors.Is/As.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
