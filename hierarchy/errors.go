package hierarchy

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrValidation is returned when node input fails validation.
	ErrValidation = errors.New("hierarchy: validation failed")

	// ErrNotFound is returned when a referenced node id does not resolve.
	ErrNotFound = errors.New("hierarchy: node not found")

	// ErrCycle is returned when a transfer would make a node its own ancestor.
	ErrCycle = errors.New("hierarchy: transfer would create a cycle")

	// ErrCorruptTree is returned when stored parent references already form a cycle.
	ErrCorruptTree = errors.New("hierarchy: stored tree contains a cycle")

	// ErrNothingStaged is returned when completing a transfer with no staged source.
	ErrNothingStaged = errors.New("hierarchy: no node staged for transfer")
)

// ValidationError carries per-field messages for form display.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Fields.Error()
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
