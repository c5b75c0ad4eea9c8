package proforma

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation error")
	// ErrInvalidState is returned when a version operation does not apply to the current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotFound is returned when a referenced version or item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyLocked is returned when locking or editing a locked version.
	ErrAlreadyLocked = errors.New("already locked")
	// ErrConflict is returned when a caller names a draft that is no longer the current one.
	ErrConflict = errors.New("conflict")
)

// ValidationError reports a structural constraint violated by an input value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ValidationErrors returns all the validation errors contained in err.
func ValidationErrors(err error) []*ValidationError {
	switch x := err.(type) {
	case nil:
		return nil
	case *ValidationError:
		return []*ValidationError{x}
	case interface{ Unwrap() []error }:
		var list []*ValidationError
		for _, e := range x.Unwrap() {
			list = append(list, ValidationErrors(e)...)
		}
		return list
	case interface{ Unwrap() error }:
		return ValidationErrors(x.Unwrap())
	default:
		return nil
	}
}
