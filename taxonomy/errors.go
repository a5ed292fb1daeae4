package taxonomy

import "errors"

var (
	// ErrTaxonomyRepositoryRequired is returned when creating an index without a repository.
	ErrTaxonomyRepositoryRequired = errors.New("taxonomy repository is required")

	// ErrInvalidInterval is returned for a non-positive refresh interval.
	ErrInvalidInterval = errors.New("invalid refresh interval")
)
