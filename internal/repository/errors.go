package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a row exists but belongs to someone else.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict signals a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrEmailExists is the users.email flavour of ErrConflict.
	ErrEmailExists = errors.New("email already exists")
)
