package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotificationsRequired indicates the requester has no notification
	// endpoint and the deployment requires one.
	ErrNotificationsRequired = errors.New("a notification endpoint is required before requesting")

	// ErrUpstream indicates TMDB, Radarr or Sonarr failed.
	ErrUpstream = errors.New("upstream service error")

	// ErrForbidden indicates the actor may not act on the request.
	ErrForbidden = errors.New("not allowed")
)

// Validation error codes.
const (
	CodeMissingUser          = "MISSING_USER"
	CodeInvalidTMDBID        = "INVALID_TMDB_ID"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeInvalidSeason        = "INVALID_SEASON"
	CodeBatchTooLarge        = "BATCH_TOO_LARGE"
	CodeEmptyBatch           = "EMPTY_BATCH"
)

// ValidationError rejects input before any side effect.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(code, format string, args ...any) error {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}
