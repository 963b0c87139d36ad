package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an id does not resolve to an entity.
	ErrNotFound = errors.New("entity not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("uniqueness constraint violated")
	// ErrValidation is returned when a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")
)

// translate maps gorm errors onto the store error set so callers never
// depend on the storage driver.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
