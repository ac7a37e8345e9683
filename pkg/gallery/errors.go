package gallery

import (
	"errors"
	"fmt"

	"github.com/dyluth/easel/pkg/kv"
)

var (
	// ErrValidation is wrapped by every *ValidationError. Validation errors
	// are reported before any store I/O and are never worth retrying.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable reports a failed or timed-out store call.
	ErrStoreUnavailable = kv.ErrStoreUnavailable
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
	Err    error // underlying cause, if any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap reports both ErrValidation and the underlying cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// reasonMissing is the Reason of a required field that was absent or empty.
const reasonMissing = "cannot be empty"

// Missing reports whether the field was absent or empty rather than
// malformed.
func (e *ValidationError) Missing() bool {
	return e.Reason == reasonMissing
}

func missing(field string) *ValidationError {
	return invalid(field, reasonMissing)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation returns true if err is, or wraps, a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStoreUnavailable returns true if err came from a failed store call.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func isInvalidCursor(err error) bool {
	return errors.Is(err, kv.ErrInvalidCursor)
}
