// Package apperrors provides sentinel error types shared across services and
// handlers for HTTP status mapping.
package apperrors

// ErrNotFound is the sentinel for "not found" errors.
var ErrNotFound = &NotFoundError{}

// NotFoundError is returned when a requested resource does not exist.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is matches any *NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation is the sentinel for validation errors.
var ErrValidation = &ValidationError{}

// ValidationError is returned when client input fails validation.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is matches any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrConflict is the sentinel for conflict errors (e.g. claiming an already
// claimed item).
var ErrConflict = &ConflictError{}

// ConflictError is returned when an operation conflicts with current state.
type ConflictError struct {
	Message string
}

// NewConflictError creates a ConflictError with a custom message.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "conflict"
}

// Is matches any *ConflictError.
func (e *ConflictError) Is(target error) bool {
	_, ok := target.(*ConflictError)

	return ok
}

// ErrExpired is the sentinel for expired resources (e.g. claim verification
// tokens past their expiry window).
var ErrExpired = &ExpiredError{}

// ExpiredError is returned when a time-limited resource is past its expiry.
type ExpiredError struct {
	Message string
}

// NewExpiredError creates an ExpiredError with a custom message.
func NewExpiredError(message string) *ExpiredError {
	return &ExpiredError{Message: message}
}

// Error implements the error interface.
func (e *ExpiredError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "expired"
}

// Is matches any *ExpiredError.
func (e *ExpiredError) Is(target error) bool {
	_, ok := target.(*ExpiredError)

	return ok
}
