package result

import "errors"

var (
	// ErrProgramRepositoryRequired is returned when creating a builder without a program repository.
	ErrProgramRepositoryRequired = errors.New("program repository is required")

	// ErrSiteRepositoryRequired is returned when creating a builder without a site repository.
	ErrSiteRepositoryRequired = errors.New("site repository is required")

	// ErrAgencyRepositoryRequired is returned when creating a builder without an agency repository.
	ErrAgencyRepositoryRequired = errors.New("agency repository is required")

	// ErrOfferingRepositoryRequired is returned when creating a builder without an offering repository.
	ErrOfferingRepositoryRequired = errors.New("offering repository is required")
)
