// Package taxonomy keeps in-memory lookup maps of active taxonomies.
//
// Each language has its own snapshot, built on first use. Codes are the same in
// every language; names are the translated display names. Snapshots are rebuilt
// wholesale by Refresh, which Run calls on a fixed interval, so a lookup may
// observe data up to StalenessBound old.
package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshInterval is how often Run rebuilds the snapshots.
const DefaultRefreshInterval = 10 * time.Minute

type snapshot struct {
	byCode map[string]*core.Taxonomy
	byName map[string]*core.Taxonomy
}

// Index maps taxonomy codes and names to active taxonomies, per language.
type Index struct {
	taxonomies      storage.TaxonomyRepository
	translations    storage.TranslationRepository
	defaultLanguage string
	interval        time.Duration
	logger          *slog.Logger

	mu        sync.RWMutex
	snapshots map[string]*snapshot
	builds    singleflight.Group
}

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// WithTranslations enables translated names for non-default languages.
func WithTranslations(repo storage.TranslationRepository) Option {
	return func(i *Index) error {
		i.translations = repo
		return nil
	}
}

// WithDefaultLanguage sets the language whose names need no translation.
func WithDefaultLanguage(language string) Option {
	return func(i *Index) error {
		if language == "" {
			return fmt.Errorf("%w: default language", core.ErrEmptyLanguage)
		}
		i.defaultLanguage = language
		return nil
	}
}

// WithRefreshInterval sets how often Run refreshes.
func WithRefreshInterval(d time.Duration) Option {
	return func(i *Index) error {
		if d <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidInterval, d)
		}
		i.interval = d
		return nil
	}
}

// NewIndex creates an empty Index. Nothing is loaded until first use.
func NewIndex(taxonomies storage.TaxonomyRepository, opts ...Option) (*Index, error) {
	if taxonomies == nil {
		return nil, ErrTaxonomyRepositoryRequired
	}
	idx := &Index{
		taxonomies:      taxonomies,
		defaultLanguage: "en",
		interval:        DefaultRefreshInterval,
		logger:          slog.Default(),
		snapshots:       make(map[string]*snapshot),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// StalenessBound is the longest a lookup can lag behind the store while Run is active.
func (i *Index) StalenessBound() time.Duration {
	return i.interval
}

// ByCode returns the active taxonomy with the exact code.
func (i *Index) ByCode(ctx context.Context, language, code string) (*core.Taxonomy, bool, error) {
	snap, err := i.snapshot(ctx, language)
	if err != nil {
		return nil, false, err
	}
	t, ok := snap.byCode[code]
	return t, ok, nil
}

// ByName returns the active taxonomy whose display name in language is name.
// The returned taxonomy carries the translated name.
func (i *Index) ByName(ctx context.Context, language, name string) (*core.Taxonomy, bool, error) {
	snap, err := i.snapshot(ctx, language)
	if err != nil {
		return nil, false, err
	}
	t, ok := snap.byName[name]
	return t, ok, nil
}

// Names returns the display names of all active taxonomies in language, sorted.
func (i *Index) Names(ctx context.Context, language string) ([]string, error) {
	snap, err := i.snapshot(ctx, language)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(snap.byName)), nil
}

// Languages returns the languages with a built snapshot.
func (i *Index) Languages() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return slices.Sorted(maps.Keys(i.snapshots))
}

func (i *Index) language(language string) string {
	if language == "" {
		return i.defaultLanguage
	}
	return language
}

func (i *Index) snapshot(ctx context.Context, language string) (*snapshot, error) {
	language = i.language(language)

	i.mu.RLock()
	snap, ok := i.snapshots[language]
	i.mu.RUnlock()
	if ok {
		return snap, nil
	}

	v, err, _ := i.builds.Do(language, func() (any, error) {
		return i.rebuild(ctx, language)
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot), nil
}

func (i *Index) rebuild(ctx context.Context, language string) (*snapshot, error) {
	taxonomies, err := i.taxonomies.GetActiveTaxonomies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading taxonomies: %w", err)
	}

	var translated map[core.ID]*core.Translation
	if language != i.defaultLanguage && i.translations != nil {
		ids := make([]core.ID, len(taxonomies))
		for n, t := range taxonomies {
			ids[n] = t.Id
		}
		translated, err = i.translations.GetTranslations(ctx, core.KindTaxonomy, language, ids...)
		if err != nil {
			return nil, fmt.Errorf("loading taxonomy translations: %w", err)
		}
	}

	snap := &snapshot{
		byCode: make(map[string]*core.Taxonomy, len(taxonomies)),
		byName: make(map[string]*core.Taxonomy, len(taxonomies)),
	}
	for _, t := range taxonomies {
		snap.byCode[t.Code] = t

		named := t
		if tr, ok := translated[t.Id]; ok && tr.Fields[core.FieldName] != "" {
			copied := *t
			copied.Name = tr.Fields[core.FieldName]
			named = &copied
		}
		snap.byName[named.Name] = named
	}

	i.mu.Lock()
	i.snapshots[language] = snap
	i.mu.Unlock()

	i.logger.Debug("taxonomy snapshot built", "language", language, "count", len(taxonomies))
	return snap, nil
}

// Refresh rebuilds the snapshot of every language seen so far,
// and of the default language.
func (i *Index) Refresh(ctx context.Context) error {
	languages := i.Languages()
	if !slices.Contains(languages, i.defaultLanguage) {
		languages = append(languages, i.defaultLanguage)
	}
	for _, language := range languages {
		if _, err, _ := i.builds.Do(language, func() (any, error) {
			return i.rebuild(ctx, language)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Run refreshes on every interval until ctx is done. Failed refreshes are
// logged and the previous snapshots stay in place.
func (i *Index) Run(ctx context.Context) {
	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := i.Refresh(ctx); err != nil {
				i.logger.Error("taxonomy refresh failed", "err", err)
			}
		}
	}
}
