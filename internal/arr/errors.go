package arr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the arr package.
var (
	// ErrUnavailable is returned when the service cannot be reached, answers
	// with a server error, or its circuit breaker is open.
	ErrUnavailable = errors.New("service unavailable")

	// ErrUnauthorized is returned when the API key is rejected.
	ErrUnauthorized = errors.New("invalid api key")

	// ErrNotFound is returned when the service has no such item.
	ErrNotFound = errors.New("not found in service")
)

// APIError is a 4xx response the service explained, such as a validation
// failure on add.
type APIError struct {
	Service string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.Status, e.Message)
}
