package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a key has no live entry.
	ErrNotFound = errors.New("cache entry not found")

	// ErrInvalidKey is returned when a stored key cannot be decoded.
	ErrInvalidKey = errors.New("invalid cache key")
)
