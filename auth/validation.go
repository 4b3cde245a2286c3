package auth

import (
	"regexp"
	"unicode/utf8"

	"github.com/jrsteele09/go-tareas-client/identity"
)

const minLoginPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateCredentials runs the checks the login form does before calling the backend.
func ValidateCredentials(email, password string) error {
	switch {
	case email == "":
		return EmailRequiredErr
	case !emailPattern.MatchString(email):
		return EmailInvalidErr
	case password == "":
		return PasswordRequiredErr
	case utf8.RuneCountInString(password) < minLoginPasswordLength:
		return PasswordTooShortErr
	}
	return nil
}

// ValidatePasswordChange checks the new password and its confirmation.
func ValidatePasswordChange(newPassword, confirm string) error {
	if utf8.RuneCountInString(newPassword) < identity.MinPasswordLength {
		return NewPasswordTooShortErr
	}
	if newPassword != confirm {
		return PasswordsDontMatchErr
	}
	return nil
}
