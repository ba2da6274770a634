package domain

import "errors"

var (
	// ErrConflict is returned when a conditional write finds the item already present.
	ErrConflict = errors.New("conditional check failed")
	// ErrNotFound is returned when the backing table does not exist.
	ErrNotFound = errors.New("not found")
)
