package service

import "errors"

// ErrUserNotFound is returned when no user row exists for a user_uid.
var ErrUserNotFound = errors.New("user not found")
