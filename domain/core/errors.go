package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound      = errors.New("resource not found")
	ErrRunNotFound   = fmt.Errorf("%w: run", ErrNotFound)
	ErrSheetNotFound = fmt.Errorf("%w: sheet", ErrNotFound)

	// Pipeline errors
	ErrCancelled    = errors.New("comparison cancelled")
	ErrDuplicateKey = errors.New("duplicate row key")
	ErrNoSource     = errors.New("document source has neither path nor reader")
	ErrSameOutput   = errors.New("output destinations must be distinct")
)

// NewNotFoundError builds a not-found error naming the missing resource
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}

// IsNotFoundError reports whether err is any kind of not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCancelled reports whether err stems from a cooperative abort
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
