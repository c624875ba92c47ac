package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrAlreadyExists = errors.New("booking already exists")

	// ErrStatusConflict means the booking was not in the expected status when
	// a compare-and-set was attempted.
	ErrStatusConflict = errors.New("booking status changed concurrently")

	ErrDuplicateSession = errors.New("payment session already attached to another booking")

	// ErrLockHeld means another owner holds an unexpired booking lock.
	ErrLockHeld = errors.New("booking lock held by another owner")
)
