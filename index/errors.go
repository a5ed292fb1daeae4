package index

import "errors"

var (
	// ErrInvalidFilter is returned when a filter expression can't be parsed.
	ErrInvalidFilter = errors.New("invalid filter expression")

	// ErrInvalidSort is returned when a sort expression can't be parsed.
	ErrInvalidSort = errors.New("invalid sort expression")

	// ErrIndexClosed is returned when operations are attempted on a closed index.
	ErrIndexClosed = errors.New("index is closed")
)
