package embedding

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("embedding: not found")
	// ErrInvalidID is returned for an empty identifier.
	ErrInvalidID = errors.New("embedding: invalid id")
	// ErrEmptyVector is returned for a zero-length vector.
	ErrEmptyVector = errors.New("embedding: empty vector")
	// ErrFrozen is returned when a frozen store is mutated.
	ErrFrozen = errors.New("embedding: store is frozen")
)

// NotFoundError reports an identifier absent from the store.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("embedding: id %q not found", e.ID)
}

// Is reports ErrNotFound equivalence.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
