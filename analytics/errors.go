package analytics

import "errors"

var (
	// ErrActivityRepositoryRequired is returned when an activity repository is not provided.
	ErrActivityRepositoryRequired = errors.New("activity repository required")

	// ErrInvalidRange is returned for an unknown trending range.
	ErrInvalidRange = errors.New("invalid trending range")
)
