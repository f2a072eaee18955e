package model

import "errors"

var (
	// ErrNotFound marks a referenced collection, folder, tab, or task that
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks a request rejected before any mutation was
	// attempted (missing required id or field).
	ErrValidation = errors.New("validation error")
	// ErrCapacityExceeded marks a persistent store that is out of space. It
	// is kept distinct from ErrNotFound so callers can surface "storage
	// full" instead of implying data loss.
	ErrCapacityExceeded = errors.New("storage capacity exceeded")
)
