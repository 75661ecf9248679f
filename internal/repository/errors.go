package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist. Token
// lookups also return it for expired tokens.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when an insert violates the unique email
// constraint.
var ErrDuplicateEmail = errors.New("email already registered")
