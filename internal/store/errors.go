package store

import "errors"

var (
	// ErrInvalidFormat is returned when a database file does not have the
	// {"entities": ..., "uuids": ...} shape.
	ErrInvalidFormat = errors.New("invalid database format")

	// ErrSaveFailed wraps every write failure reported by Save.
	ErrSaveFailed = errors.New("save failed")
)
