// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package carefind wires the store, the full-text/geo index and the search
// services together from a Config.
package carefind

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/carefind/analytics"
	"github.com/poiesic/carefind/config"
	"github.com/poiesic/carefind/facet"
	"github.com/poiesic/carefind/i18n"
	"github.com/poiesic/carefind/index/sqlite"
	"github.com/poiesic/carefind/ingestion"
	"github.com/poiesic/carefind/reindex"
	"github.com/poiesic/carefind/result"
	"github.com/poiesic/carefind/search"
	"github.com/poiesic/carefind/storage/badger"
	"github.com/poiesic/carefind/taxonomy"
	"github.com/prometheus/client_golang/prometheus"
)

type Database struct {
	config     *config.Config
	store      *badger.Store
	index      *sqlite.Index
	labels     *i18n.Labels
	taxonomies *taxonomy.Index
	recorder   *analytics.Recorder
	registerer prometheus.Registerer
	logger     *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	inMemory   bool
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithRegisterer registers search metrics with reg.
func WithRegisterer(reg prometheus.Registerer) DatabaseOption {
	return func(o *databaseOptions) {
		o.registerer = reg
	}
}

// InMemory keeps the store and the index in memory. Config paths are ignored.
func InMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// OpenDatabase opens the store and the index named by cfg.
func OpenDatabase(cfg *config.Config, opts ...DatabaseOption) (*Database, error) {
	if cfg == nil {
		var err error
		if cfg, err = config.Default(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	db := &Database{
		config:     cfg,
		registerer: options.registerer,
		logger:     options.logger,
	}

	var err error
	if options.inMemory {
		db.store, err = badger.NewMemoryStore()
	} else {
		db.store, err = badger.OpenStore(cfg.StorePath())
	}
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if options.inMemory {
		db.index, err = sqlite.OpenMemory(sqlite.WithLogger(db.logger))
	} else {
		indexPath := cfg.ResolvedIndexPath()
		if err = os.MkdirAll(filepath.Dir(indexPath), 0755); err == nil {
			db.index, err = sqlite.Open(indexPath, sqlite.WithLogger(db.logger))
		}
	}
	if err != nil {
		db.store.Close()
		return nil, fmt.Errorf("opening index: %w", err)
	}

	if err := db.wire(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (db *Database) wire() error {
	cfg := db.config

	var err error
	db.labels, err = i18n.NewLabels(cfg.ResolvedLabelsDir(),
		i18n.WithLabelTTL(cfg.Cache.LabelTTL.Duration),
		i18n.WithLabelLogger(db.logger),
	)
	if err != nil {
		return fmt.Errorf("loading labels: %w", err)
	}

	db.taxonomies, err = taxonomy.NewIndex(db.store.Taxonomies,
		taxonomy.WithLogger(db.logger),
		taxonomy.WithTranslations(db.store.Translations),
		taxonomy.WithDefaultLanguage(cfg.DefaultLanguage),
		taxonomy.WithRefreshInterval(cfg.Taxonomy.RefreshInterval.Duration),
	)
	if err != nil {
		return fmt.Errorf("creating taxonomy index: %w", err)
	}

	db.recorder, err = analytics.NewRecorder(db.store.Activities, analytics.WithLogger(db.logger))
	if err != nil {
		return fmt.Errorf("creating recorder: %w", err)
	}
	return nil
}

// Close closes the index and the store.
func (db *Database) Close() error {
	var errs []error
	if db.index != nil {
		if err := db.index.Close(); err != nil {
			db.logger.Error("error closing index", "err", err)
			errs = append(errs, err)
		}
	}
	if db.store != nil {
		if err := db.store.Close(); err != nil {
			db.logger.Error("error closing store", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (db *Database) Config() *config.Config {
	return db.config
}

func (db *Database) Store() *badger.Store {
	return db.store
}

func (db *Database) Index() *sqlite.Index {
	return db.index
}

func (db *Database) Taxonomies() *taxonomy.Index {
	return db.taxonomies
}

func (db *Database) Recorder() *analytics.Recorder {
	return db.recorder
}

func (db *Database) Labels() *i18n.Labels {
	return db.labels
}

func (db *Database) repositories() result.Repositories {
	return result.Repositories{
		Programs:     db.store.Programs,
		Sites:        db.store.Sites,
		Agencies:     db.store.Agencies,
		Offerings:    db.store.Offerings,
		Taxonomies:   db.store.Taxonomies,
		Translations: db.store.Translations,
	}
}

// NewSearcher creates a searcher configured from the database config.
// opts are applied after the configured ones.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	cfg := db.config

	engine, err := facet.NewEngine(
		facet.WithLogger(db.logger),
		facet.WithTimezone(cfg.Timezone),
	)
	if err != nil {
		return nil, err
	}

	trendingRange, err := analytics.ParseRange(cfg.Suggest.TrendingRange)
	if err != nil {
		return nil, err
	}
	suggest := search.SuggestOptions{
		Limit:      cfg.Suggest.Limit,
		Taxonomies: cfg.Suggest.Taxonomies,
		Trending:   cfg.Suggest.Trending,
		Related:    cfg.Suggest.Related,
		TrendingOptions: analytics.TrendingOptions{
			Range:    trendingRange,
			MinCount: cfg.Suggest.TrendingMinCount,
			MaxShow:  cfg.Suggest.TrendingMaxShow,
		},
	}

	configured := []search.Option{
		search.WithLogger(db.logger),
		search.WithLabels(db.labels),
		search.WithDefaultLanguage(cfg.DefaultLanguage),
		search.WithRecorder(db.recorder),
		search.WithFacetEngine(engine),
		search.WithCacheTTL(cfg.Cache.ResultTTL.Duration),
		search.WithSearchLimit(cfg.Search.SearchLimit),
		search.WithSiteLimit(cfg.Search.SiteLimit),
		search.WithFacetRetry(cfg.Search.FacetRetries, cfg.Search.FacetRetryDelay.Duration),
		search.WithSuggestOptions(suggest),
		search.WithRegisterer(db.registerer),
	}
	return search.NewSearcher(db.repositories(), db.index, db.taxonomies, append(configured, opts...)...)
}

// NewIngestionPipeline creates a pipeline writing to the store and indexing
// every configured language. The caller releases it.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	cfg := db.config
	configured := []ingestion.Option{
		ingestion.WithLogger(db.logger),
		ingestion.WithDefaultLanguage(cfg.DefaultLanguage),
		ingestion.WithLanguages(cfg.IndexLanguages()...),
	}
	if cfg.Ingest.PoolSize > 0 {
		configured = append(configured, ingestion.WithPoolSize(cfg.Ingest.PoolSize))
	}
	if cfg.Ingest.BatchSize > 0 {
		configured = append(configured, ingestion.WithBatchSize(cfg.Ingest.BatchSize))
	}
	repos := ingestion.Repositories{
		Taxonomies:   db.store.Taxonomies,
		Agencies:     db.store.Agencies,
		Sites:        db.store.Sites,
		Programs:     db.store.Programs,
		Offerings:    db.store.Offerings,
		Translations: db.store.Translations,
	}
	return ingestion.NewPipeline(repos, db.index, append(configured, opts...)...)
}

// NewReindexer creates a reindexer rebuilding every configured language.
// configure functions run on the derived reindex.Config before it is used.
func (db *Database) NewReindexer(progress io.Writer, configure ...func(*reindex.Config)) (*reindex.Reindexer, error) {
	cfg := db.config
	rc := reindex.DefaultConfig()
	rc.Languages = cfg.IndexLanguages()
	rc.DefaultLanguage = cfg.DefaultLanguage
	if cfg.Ingest.BatchSize > 0 {
		rc.BatchSize = cfg.Ingest.BatchSize
	}
	if cfg.Ingest.MaxRetries > 0 {
		rc.MaxRetries = cfg.Ingest.MaxRetries
	}
	for _, fn := range configure {
		fn(rc)
	}
	repos := reindex.Repositories{
		Taxonomies:   db.store.Taxonomies,
		Programs:     db.store.Programs,
		Sites:        db.store.Sites,
		Translations: db.store.Translations,
	}
	return reindex.NewReindexer(repos, db.index, rc, progress)
}
