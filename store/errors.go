package store

import "errors"

var (
	// ErrDuplicateKey is returned by Add when a record with the same id already exists.
	ErrDuplicateKey = errors.New("canopy: duplicate key")

	// ErrStorage wraps any failure of the underlying storage engine.
	ErrStorage = errors.New("canopy: storage failure")

	// ErrUnknownIndex is returned when looking up an index the schema does not declare.
	ErrUnknownIndex = errors.New("canopy: unknown index")

	// ErrBatchTooLarge is returned when a batch exceeds what the backend can apply atomically.
	ErrBatchTooLarge = errors.New("canopy: batch too large")

	// ErrUnknownDriver is returned when the configured driver is not supported.
	ErrUnknownDriver = errors.New("canopy: unknown storage driver")
)
