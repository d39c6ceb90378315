package apperror

import "fmt"

// ConfigurationError signals a required setting was absent or invalid for the
// requested operation. Raised before any network call is attempted.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Setting, e.Reason)
}

func NewConfigurationError(setting, reason string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Reason: reason}
}

// UpstreamError signals the retrieval or completion backend failed. The
// request is not retried; the failure surfaces to the caller as-is.
type UpstreamError struct {
	Backend string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func NewUpstreamError(backend string, err error) *UpstreamError {
	return &UpstreamError{Backend: backend, Err: err}
}

// ValidationError signals a malformed request body, rejected before any
// pipeline step runs.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}
