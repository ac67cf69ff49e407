package errors

import "errors"

var (
	ErrNotFound = errors.New("tutor not found")

	ErrInvalidID = errors.New("invalid tutor ID format")

	ErrEmailInUse = errors.New("email already registered")

	ErrProfileExists = errors.New("tutor profile already exists")
)
