package db

import "errors"

var (
	// requested record is not found.
	ErrMissing = errors.New("missing")

	// requested record is found more times than expected.
	ErrTooMuch = errors.New("too much")

	// a record with the same identity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// the entity does not satisfy its own constraints.
	ErrInvalid = errors.New("invalid")
)
