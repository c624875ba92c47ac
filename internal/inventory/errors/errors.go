package errors

import "errors"

var (
	ErrNotFound = errors.New("inventory not found")

	ErrMissingDays = errors.New("inventory missing for one or more days")

	ErrInsufficientCapacity = errors.New("not enough rooms available")
)
