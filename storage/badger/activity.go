package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// ActivityRepository implements storage.ActivityRepository for BadgerDB.
type ActivityRepository struct {
	backend *Backend
}

var _ storage.ActivityRepository = (*ActivityRepository)(nil)

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(backend *Backend) (*ActivityRepository, error) {
	return &ActivityRepository{backend: backend}, nil
}

// Close releases resources. ActivityRepository has no resources to release.
func (r *ActivityRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ActivityRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddActivities appends activities to storage.
func (r *ActivityRepository) AddActivities(ctx context.Context, activities ...*core.UserActivity) ([]*core.UserActivity, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, activity := range activities {
			if err := core.ValidateActivity(activity); err != nil {
				return err
			}
			if activity.Id == "" {
				activity.Id = core.ID(uuid.NewString())
			}
			if activity.CreatedAt.IsZero() {
				activity.CreatedAt = now
			}
			if activity.UpdatedAt.IsZero() {
				activity.UpdatedAt = activity.CreatedAt
			}

			// Store primary record
			if err := tx.Set(makeActivityKey(activity.Id), storage.MarshalActivity(activity)); err != nil {
				return err
			}

			// Store date index
			if err := tx.Set(makeActivityDateKey(activity.CreatedAt, activity.Id), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return activities, err
}

// GetActivitiesSince scans the date index from since onwards.
func (r *ActivityRepository) GetActivitiesSince(ctx context.Context, since time.Time) ([]*core.UserActivity, error) {
	var result []*core.UserActivity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(activityDatePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := makePartialActivityDateKey(since)
		idOffset := len(activityDatePrefix) + 8
		for iter.Seek(start); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := iter.Item().Key()
			if len(key) <= idOffset {
				continue
			}
			id := core.ID(key[idOffset:])

			activity, err := readRecord(tx, makeActivityKey(id), storage.UnmarshalActivity)
			if err != nil {
				return err
			}
			if activity != nil {
				result = append(result, activity)
			}
		}
		return nil
	}, false)
	return result, err
}
