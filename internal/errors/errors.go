package errors

import (
	"errors"
	"fmt"
)

// Common error types for the tareas client
var (
	// Session errors
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrNoRefreshToken     = errors.New("no refresh token")
	ErrRefreshFailed      = errors.New("token refresh failed")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrSessionChanged     = errors.New("stored session changed")

	// Input errors, raised before any network call
	ErrInvalidInput = errors.New("invalid input")

	// Collection errors
	ErrNotFound = errors.New("not found")

	// General errors
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines errors, dropping nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// ValidationError is returned when input fails a client-side check.
// It unwraps to ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
