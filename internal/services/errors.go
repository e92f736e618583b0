package services

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("account not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUpstream           = errors.New("upstream service failure")
	ErrNothingToDelete    = errors.New("no profile picture to delete")
	ErrProviderDisabled   = errors.New("sign-in provider is not configured")

	errPasswordAlreadySet = errors.New("password cannot be set here, use the change password endpoint")
)

// ValidationError carries per-field failures. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrValidation.Error(), e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

func invalidf(format string, args ...any) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}

func fieldError(field string, err error) error {
	return validation.Errors{field: err}
}
