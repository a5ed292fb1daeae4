package reindex

import "context"

// DefaultBatchSize is the default number of entities written per index call.
const DefaultBatchSize = 100

// ForEachBatch calls fn with consecutive slices of at most size items.
// Iteration stops on the first error from fn. Context cancellation is
// checked before every batch.
func ForEachBatch[T any](ctx context.Context, items []T, size int, fn func([]T) error) error {
	if size <= 0 {
		size = DefaultBatchSize
	}
	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(items[start:min(start+size, len(items))]); err != nil {
			return err
		}
	}
	return nil
}
