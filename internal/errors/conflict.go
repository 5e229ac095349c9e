package errors

import (
	stdErrors "errors"
	"fmt"
)

// ConflictError is returned when a commit hits an identity key that is
// already stored and the run is configured to abort on conflicts.
type ConflictError struct {
	Key       string
	Committed int
	Err       error
}

func (e *ConflictError) Error() string {
	msg := "identity key conflict"
	if e.Key != "" {
		msg = fmt.Sprintf("%s on %s", msg, e.Key)
	}
	msg = fmt.Sprintf("%s after %d committed records", msg, e.Committed)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// NewConflictError creates a new ConflictError
func NewConflictError(key string, err error) *ConflictError {
	return &ConflictError{Key: key, Err: err}
}

// IsConflictError checks if error is a ConflictError
func IsConflictError(err error) bool {
	var conflictErr *ConflictError
	return stdErrors.As(err, &conflictErr)
}
