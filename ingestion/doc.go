// Package ingestion loads directory datasets into the store and keeps the
// full-text/geo index in step.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Writing entities to storage in reference order
//   - Indexing programs, taxonomies and sites asynchronously, per language
//
// Indexing runs on a worker pool. Errors during async indexing are logged
// and reported by Wait; they do not fail the ingestion itself.
package ingestion
