package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation wraps every trip request rule violation.
	ErrValidation = errors.New("validation error")

	// ErrInvalidTransition is returned when a status update would break the
	// pending -> processing -> completed|failed state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRunInProgress is returned when another orchestration already holds the
	// run lock for the same trip request.
	ErrRunInProgress = errors.New("plan generation already in progress")
)
