package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a repository is not provided.
	ErrRepositoryRequired = errors.New("repository required")

	// ErrIndexerRequired is returned when an indexer is not provided.
	ErrIndexerRequired = errors.New("indexer required")

	// ErrUnknownFormat is returned for dataset files that are neither JSON nor YAML.
	ErrUnknownFormat = errors.New("unknown dataset format")

	// ErrInvalidDataset is returned when a dataset can't be decoded.
	ErrInvalidDataset = errors.New("invalid dataset")
)
