package classifications

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or is owned by someone else.
	ErrNotFound = errors.New("classification not found")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
)
