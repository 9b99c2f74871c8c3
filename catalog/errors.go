package catalog

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrValidation is returned when input fails validation.
	ErrValidation = errors.New("catalog: validation failed")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("catalog: record not found")
)

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Fields.Error()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return err
}
