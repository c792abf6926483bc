package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when login fails. It is shared by
	// the user-missing and wrong-password paths so the two are
	// indistinguishable to clients.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateUser is returned when signup targets an email that an
	// active user already holds.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrMissingToken is returned when no refresh token was presented.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken is returned when a token does not match an active
	// store record, or its claims are inconsistent with the record.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the embedded expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrMalformedSignature is returned when the signature check fails or
	// the encoding is broken. Distinguished from the other token failures
	// because it indicates tampering rather than normal staleness.
	ErrMalformedSignature = errors.New("malformed token signature")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// ValidationError reports a malformed credential field at signup, login,
// or account update. Field is the stable logical name: "email", "name",
// "password".
type ValidationError struct {
	Field string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s format", e.Field)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
