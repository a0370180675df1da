package models

import "errors"

// Not-found errors.
var (
	ErrLetterNotFound = errors.New("letter not found")
	ErrUnitNotFound   = errors.New("unit not found")
	ErrUserNotFound   = errors.New("user not found")
)

// Uniqueness conflicts.
var (
	ErrDuplicateUsername      = errors.New("username already taken")
	ErrDuplicateUnitCode      = errors.New("unit code already taken")
	ErrDuplicateUnitInRequest = errors.New("unit listed more than once")
)

// ErrUnknownUnit is returned when a letter references a unit id that is not
// in the registry.
var ErrUnknownUnit = errors.New("referenced unit does not exist")

// ErrMissingCredentials is returned when a username or password is empty.
var ErrMissingCredentials = errors.New("username and password are required")

// ErrInvalidCredentials covers both an unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Upload policy violations.
var (
	ErrFileTooLarge       = errors.New("attachment exceeds the size limit")
	ErrFileTypeNotAllowed = errors.New("attachment type is not allowed")
)

// ErrInvalidRole is returned on registration with a role other than admin or user.
var ErrInvalidRole = errors.New("invalid role")

// ValidationError reports a request that failed field validation.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ErrAttachmentNotFound is returned when a stored file name does not resolve.
var ErrAttachmentNotFound = errors.New("attachment not found")
