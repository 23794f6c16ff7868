// Package apperrors holds the error taxonomy shared by the store, the privacy
// pipeline and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/hengadev/errsx"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrCodec        = errors.New("malformed field value")
	ErrAccessDenied = errors.New("access denied")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidRole  = errors.New("invalid role")
)

// ValidationError reports every missing or malformed field of a create or
// update request at once. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields errsx.Map
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Fields.Error())
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Fields.AsError()
}

// NewValidationError returns nil when fields is empty so callers can return
// its result directly.
func NewValidationError(fields errsx.Map) error {
	if fields.IsEmpty() {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// IsClientError reports whether err was caused by the caller's input rather
// than by the store or the environment.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrCodec)
}
