package registry

import (
	"errors"
	"fmt"

	"github.com/mwantia/cpkgs/pkg/db/store"
)

// Error kinds surfaced by the facade. The HTTP layer maps these 1:1 to
// response statuses without translation loss.
var (
	// ErrValidation marks malformed or missing required input.
	ErrValidation = errors.New("validation error")
	// ErrConstraint marks a uniqueness or referential rule violation.
	ErrConstraint = errors.New("constraint violation")
	// ErrNotFound marks an id that does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks a valid credential lacking the required role.
	ErrForbidden = errors.New("forbidden")
)

// wrapStore lifts store errors into the facade taxonomy. Anything the
// taxonomy does not name stays wrapped as-is and surfaces as an
// internal failure.
func wrapStore(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	case errors.Is(err, store.ErrValidation):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	default:
		return err
	}
}
