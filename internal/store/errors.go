package store

import (
	"errors"
	"fmt"

	"github.com/vk/trackertools/internal/snapshot"
)

// ErrDerivation is matched by every DerivationError.
var ErrDerivation = errors.New("derivation failed")

// DerivationError reports a derivation that failed during a recomputation
// pass. Nothing from the failed pass was committed.
type DerivationError struct {
	// Field is the id of the field whose derivation failed.
	Field string
	// Previous is the committed snapshot, still current after the failure.
	Previous snapshot.Snapshot
	// Working is the pass's working copy at the moment of failure.
	Working snapshot.Snapshot
	Err     error
}

// Error implements the error interface.
func (e *DerivationError) Error() string {
	return fmt.Sprintf("deriving field %q: %v", e.Field, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DerivationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDerivation) succeed.
func (e *DerivationError) Is(target error) bool {
	return target == ErrDerivation
}
