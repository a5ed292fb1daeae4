package facet

import "errors"

var (
	// ErrInvalidTimezone is returned when the reference timezone cannot be loaded.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidFilters is returned when a filter selection cannot be parsed.
	ErrInvalidFilters = errors.New("invalid filters")
)
