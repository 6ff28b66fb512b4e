// Package apperr holds sentinel errors shared across the application layers.
package apperr

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrClosed               = errors.New("closed")
)
