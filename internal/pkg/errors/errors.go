package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is a generic sentinel for uniqueness violations.
	ErrConflict = errors.New("conflict")
	// ErrLockHeld signals that the sync lock is already taken.
	ErrLockHeld = errors.New("sync lock held")
)
