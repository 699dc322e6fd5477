package models

import "errors"

var (
	// ErrNotFound is returned by stores when a record (or the event a child row points at) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("conflict")
)
