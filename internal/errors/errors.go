package errors

import (
	"errors"
	"fmt"
)

// Common error types for the token lifecycle service
var (
	// Identity assertion errors
	ErrMissingIdentity   = errors.New("missing identity")
	ErrMissingScope      = errors.New("missing scope")
	ErrMalformedIdentity = errors.New("malformed identity")
	ErrMalformedScope    = errors.New("malformed scope")

	// Pagination errors
	ErrInvalidPage     = errors.New("invalid page")
	ErrInvalidPageSize = errors.New("invalid page size")

	// Request errors
	ErrValidation       = errors.New("invalid request")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageInvariant   = errors.New("storage invariant violation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
