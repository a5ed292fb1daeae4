// Package analytics records user activity and derives search suggestions from it.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// Keys of UserActivity.Data.
const (
	DataTerms      = "terms"
	DataTaxonomies = "taxonomies"
	DataZipCode    = "zipCode"
	DataRadius     = "radius"
	DataLat        = "lat"
	DataLng        = "lng"
	DataCount      = "count"
)

// Recorder appends user activity and queries it.
type Recorder struct {
	repo   storage.ActivityRepository
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithClock replaces time.Now for timestamps and trending ranges.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) error {
		r.now = now
		return nil
	}
}

// NewRecorder creates a Recorder over repo.
func NewRecorder(repo storage.ActivityRepository, opts ...Option) (*Recorder, error) {
	if repo == nil {
		return nil, ErrActivityRepositoryRequired
	}
	r := &Recorder{
		repo:   repo,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Record appends one activity and returns it with its id and timestamps set.
func (r *Recorder) Record(ctx context.Context, userID, event string, data map[string]string) (*core.UserActivity, error) {
	now := r.now().UTC()
	activity := &core.UserActivity{
		UserId:    userID,
		Event:     event,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := core.ValidateActivity(activity); err != nil {
		return nil, err
	}

	added, err := r.repo.AddActivities(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("recording %s: %w", event, err)
	}
	r.logger.Debug("recorded activity", "event", event, "user", userID, "id", added[0].Id)
	return added[0], nil
}
