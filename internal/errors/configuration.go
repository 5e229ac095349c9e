package errors

import (
	stdErrors "errors"
	"fmt"
)

// ConfigurationError is raised before a run starts when the requested setup
// cannot work, e.g. an unknown provider code or a bad batch size.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Setting == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Setting, e.Message)
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(setting, message string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Message: message}
}

// IsConfigurationError checks if error is a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return stdErrors.As(err, &cfgErr)
}
