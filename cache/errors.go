package cache

import "errors"

var (
	// ErrInvalidKey is returned when a key can't be normalized.
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrInvalidTTL is returned for a non-positive time to live.
	ErrInvalidTTL = errors.New("invalid cache ttl")
)
