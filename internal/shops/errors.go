package shops

import "errors"

var (
	// ErrNotFound indicates an entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateDomain indicates the user already registered this domain.
	ErrDuplicateDomain = errors.New("domain already registered")
)
