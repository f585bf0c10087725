package store

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable means the backing database could not be opened,
	// its schema could not be applied, or Initialize has not run yet.
	ErrStoreUnavailable = errors.New("photo store unavailable")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid photo")
	// ErrNotFound means no row carries the requested id.
	ErrNotFound = errors.New("photo not found")
)

// ValidationError names the offending field of a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func unavailable(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrStoreUnavailable, op)
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func notFound(id int64) error {
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
