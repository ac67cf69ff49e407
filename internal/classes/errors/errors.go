package errors

import "errors"

var (
	ErrNotFound = errors.New("class not found")

	ErrInvalidID = errors.New("invalid class ID format")

	// ErrAvailabilityChanged means a conditional availability write matched
	// nothing: another request flipped the flag first.
	ErrAvailabilityChanged = errors.New("class availability changed concurrently")
)
