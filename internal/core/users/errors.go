package users

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned when a profile lookup finds no matching record
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when a profile already exists for the UID
	ErrUserExists = errors.New("user profile already exists")
)

// InvalidFieldError is returned when a registration field is missing or malformed
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsInvalidField checks if err is a registration field error
func IsInvalidField(err error) bool {
	var fieldErr *InvalidFieldError
	return errors.As(err, &fieldErr)
}
