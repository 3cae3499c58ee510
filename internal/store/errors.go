package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. Entity-specific variants below wrap it so callers can match
	// either the generic or the specific error.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation or
	// references a row that does not exist. Check the wrapped error for
	// details.
	ErrInvalidEntity = errors.New("invalid entity")

	// Entity-specific "not found" errors.
	ErrUserNotFound        = fmt.Errorf("%w: user", ErrNotFound)
	ErrTaskNotFound        = fmt.Errorf("%w: task", ErrNotFound)
	ErrTemplateNotFound    = fmt.Errorf("%w: template", ErrNotFound)
	ErrSelectionNotFound   = fmt.Errorf("%w: selection", ErrNotFound)
	ErrCategoryNotFound    = fmt.Errorf("%w: category", ErrNotFound)
	ErrImportBatchNotFound = fmt.Errorf("%w: import batch", ErrNotFound)

	// Entity-specific "duplicate" errors.
	ErrEmailExists    = fmt.Errorf("%w: email", ErrDuplicate)
	ErrInstanceExists = fmt.Errorf("%w: task instance", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
