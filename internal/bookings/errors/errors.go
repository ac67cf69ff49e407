package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means a conditional status write matched nothing: the
	// booking left the expected status between read and write.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)
