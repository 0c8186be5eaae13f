package posts

import (
	"errors"
	"fmt"
)

// Sentinel errors for common post operations
var (
	// ErrNotFound is returned when a post does not exist
	ErrNotFound = errors.New("post not found")

	// ErrNotAuthorized is returned when the acting user is not the post's creator
	ErrNotAuthorized = errors.New("user not authorized to modify this post")

	// ErrUserNotFound is returned when a counter increment targets a missing user profile
	ErrUserNotFound = errors.New("user profile not found")
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// WriteError wraps a remote store failure on create, update, delete or increment
type WriteError struct {
	Err error
	Op  string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ReadError wraps a remote store failure on list or get
type ReadError struct {
	Err error
	Op  string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// IsWriteError checks if error is a remote write failure
func IsWriteError(err error) bool {
	var writeErr *WriteError
	return errors.As(err, &writeErr)
}

// IsReadError checks if error is a remote read failure
func IsReadError(err error) bool {
	var readErr *ReadError
	return errors.As(err, &readErr)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
