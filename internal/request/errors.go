package request

import "errors"

var (
	// ErrNotFound indicates the request doesn't exist.
	ErrNotFound = errors.New("request not found")

	// ErrDuplicate indicates an active request already holds the media (or season).
	ErrDuplicate = errors.New("active request already exists")

	// ErrConstraint indicates a foreign key or check constraint violation.
	ErrConstraint = errors.New("constraint violation")

	// ErrInvalidTransition indicates a state change the lifecycle doesn't allow.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrStale indicates the request changed state between read and write.
	ErrStale = errors.New("request modified concurrently")
)
