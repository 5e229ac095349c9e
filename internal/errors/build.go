package errors

import (
	stdErrors "errors"
	"fmt"
)

// BuildError is returned when a raw provider entry cannot be turned into a
// valid record. Field names the offending record field.
type BuildError struct {
	Field  string
	Reason string
	Key    string
}

func (e *BuildError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("build %s: field %s: %s", e.Key, e.Field, e.Reason)
	}
	return fmt.Sprintf("build: field %s: %s", e.Field, e.Reason)
}

// NewBuildError creates a new BuildError
func NewBuildError(field, reason string) *BuildError {
	return &BuildError{Field: field, Reason: reason}
}

// IsBuildError checks if error is a BuildError
func IsBuildError(err error) bool {
	var buildErr *BuildError
	return stdErrors.As(err, &buildErr)
}

// AsBuildError returns the first BuildError in the chain.
func AsBuildError(err error) (*BuildError, bool) {
	var buildErr *BuildError
	if stdErrors.As(err, &buildErr) {
		return buildErr, true
	}
	return nil, false
}
