package common

import "errors"

var (
	// Store-level errors.
	ErrStoreIO      = errors.New("store i/o error")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("not found")

	// Registry-level errors.
	ErrDatabase        = errors.New("database error")
	ErrInvalidPassword = errors.New("invalid password")

	// Client-side errors.
	ErrTransport = errors.New("transport error")

	// Startup errors. Always fatal.
	ErrConfig = errors.New("config error")
)
