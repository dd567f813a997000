package registry

import (
	"errors"
	"fmt"
)

// ErrUnknownField is matched by every UnknownFieldError.
var ErrUnknownField = errors.New("unknown field")

// UnknownFieldError reports an id outside the registered catalog.
type UnknownFieldError struct {
	ID string
}

// Error implements the error interface.
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.ID)
}

// Is makes errors.Is(err, ErrUnknownField) succeed.
func (e *UnknownFieldError) Is(target error) bool {
	return target == ErrUnknownField
}

// ErrReadOnly is matched by every ReadOnlyError.
var ErrReadOnly = errors.New("field is read-only")

// ReadOnlyError reports a host-level edit of a field that only its
// derivation may write. The store itself accepts such edits.
type ReadOnlyError struct {
	ID string
}

// Error implements the error interface.
func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("field %q is read-only", e.ID)
}

// Is makes errors.Is(err, ErrReadOnly) succeed.
func (e *ReadOnlyError) Is(target error) bool {
	return target == ErrReadOnly
}
