// Package reindex rebuilds the full-text/geo index from the store.
//
// Every per-language program, taxonomy and site index is cleared and
// refilled in batches. Index writes are retried with exponential backoff,
// and progress is reported to a writer as the rebuild advances.
package reindex
