package storage

import "errors"

// Storage errors.
var (
	// ErrNotFound is returned when a requested dataset does not exist.
	// Callers treat it as "start from the default begin time", never as a
	// failure.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
