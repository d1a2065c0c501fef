package user

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFields     = errors.New("all fields are required")
	ErrMissingID         = errors.New("user id required")
	ErrNoUsersFound      = errors.New("no users found")
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrInvalidUserData   = errors.New("invalid user data received")
	ErrUserHasNotes      = errors.New("user has an assigned note")
)

// ErrUsernameConflict is returned by updates. It matches ErrDuplicateUsername
// with errors.Is but maps to 409 instead of 400.
var ErrUsernameConflict = fmt.Errorf("%w", ErrDuplicateUsername)
