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


package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/i18n"
	"github.com/poiesic/carefind/index"
	"github.com/poiesic/carefind/storage"
)

// Config holds configuration for the rebuild.
type Config struct {
	// BatchSize is the number of entities written per index call
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each index write
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Languages are the languages rebuilt. Empty means DefaultLanguage only.
	Languages []string

	// DefaultLanguage is the language stored records are written in
	DefaultLanguage string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:       DefaultBatchSize,
		ReportInterval:  100,
		MaxRetries:      3,
		RetryDelay:      1 * time.Second,
		DefaultLanguage: "en",
	}
}

// Repositories are the stores a Reindexer reads. Translations is optional.
type Repositories struct {
	Taxonomies   storage.TaxonomyRepository
	Programs     storage.ProgramRepository
	Sites        storage.SiteRepository
	Translations storage.TranslationRepository
}

// Summary describes a finished rebuild.
type Summary struct {
	Languages  []string
	Taxonomies int
	Programs   int
	Sites      int
	Documents  int
	Elapsed    time.Duration
}

// Reindexer rebuilds every per-language index from the store.
type Reindexer struct {
	repos    Repositories
	indexer  index.Indexer
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(repos Repositories, indexer index.Indexer, config *Config, progress io.Writer) (*Reindexer, error) {
	if repos.Taxonomies == nil || repos.Programs == nil || repos.Sites == nil {
		return nil, ErrRepositoryRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Reindexer{
		repos:    repos,
		indexer:  indexer,
		config:   config,
		progress: progress,
		logger:   slog.Default(),
	}, nil
}

func (r *Reindexer) languages() []string {
	var langs []string
	for _, l := range r.config.Languages {
		if l = i18n.NormalizeLanguage(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		langs = []string{r.defaultLanguage()}
	}
	return langs
}

func (r *Reindexer) defaultLanguage() string {
	if l := i18n.NormalizeLanguage(r.config.DefaultLanguage); l != "" {
		return l
	}
	return "en"
}

// Run executes the rebuild. Each index is cleared before it is refilled with
// the enabled taxonomies and programs and the listed sites.
// Progress is reported to the configured writer.
func (r *Reindexer) Run(ctx context.Context) (*Summary, error) {
	taxonomies, err := r.repos.Taxonomies.GetActiveTaxonomies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query taxonomies: %w", err)
	}
	programs, err := r.repos.Programs.GetActivePrograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	allSites, err := r.repos.Sites.GetAllSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	sites := allSites[:0:0]
	for _, s := range allSites {
		if s.Status.IsListed() {
			sites = append(sites, s)
		}
	}

	languages := r.languages()
	summary := &Summary{
		Languages:  languages,
		Taxonomies: len(taxonomies),
		Programs:   len(programs),
		Sites:      len(sites),
	}
	perLanguage := len(taxonomies) + len(programs) + len(sites)
	summary.Documents = perLanguage * len(languages)

	fmt.Fprintf(r.progress, "Rebuilding %d documents in %d languages (batch size: %d)\n",
		summary.Documents, len(languages), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, "documents", summary.Documents, r.config.ReportInterval)
	tracker.Start()

	for _, lang := range languages {
		if err := r.rebuild(ctx, lang, taxonomies, programs, sites, tracker); err != nil {
			return nil, fmt.Errorf("rebuilding %s indexes: %w", lang, err)
		}
	}

	tracker.Finish()
	summary.Elapsed = tracker.Elapsed()

	rate := 0.0
	if secs := summary.Elapsed.Seconds(); secs > 0 {
		rate = float64(summary.Documents) / secs
	}
	fmt.Fprintf(r.progress, "Rebuild complete. Indexed %d documents in %v (%.1f documents/sec)\n",
		summary.Documents, summary.Elapsed.Round(time.Millisecond), rate)

	return summary, nil
}

func (r *Reindexer) rebuild(
	ctx context.Context,
	language string,
	taxonomies []*core.Taxonomy,
	programs []*core.Program,
	sites []*core.Site,
	tracker *ProgressTracker,
) error {
	for _, base := range []string{index.Taxonomies, index.Programs, index.Sites} {
		name := index.Name(base, language)
		err := r.retry(ctx, func(ctx context.Context) error {
			return r.indexer.Clear(ctx, name)
		})
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
	}

	err := ForEachBatch(ctx, taxonomies, r.config.BatchSize, func(batch []*core.Taxonomy) error {
		translations, err := r.translations(ctx, core.KindTaxonomy, language, taxonomyIDs(batch))
		if err != nil {
			return err
		}
		return r.write(ctx, index.TaxonomyBatch(language, batch, translations), tracker)
	})
	if err != nil {
		return err
	}

	err = ForEachBatch(ctx, programs, r.config.BatchSize, func(batch []*core.Program) error {
		translations, err := r.translations(ctx, core.KindProgram, language, programIDs(batch))
		if err != nil {
			return err
		}
		return r.write(ctx, index.ProgramBatch(language, batch, translations), tracker)
	})
	if err != nil {
		return err
	}

	return ForEachBatch(ctx, sites, r.config.BatchSize, func(batch []*core.Site) error {
		return r.write(ctx, index.SiteBatch(language, batch), tracker)
	})
}

func (r *Reindexer) translations(ctx context.Context, kind core.EntityKind, language string, ids []core.ID) (map[core.ID]*core.Translation, error) {
	if r.repos.Translations == nil || language == r.defaultLanguage() {
		return nil, nil
	}
	found, err := r.repos.Translations.GetTranslations(ctx, kind, language, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s translations: %w", kind, err)
	}
	return found, nil
}

// write applies a batch with retry and advances the tracker.
func (r *Reindexer) write(ctx context.Context, b index.Batch, tracker *ProgressTracker) error {
	err := r.retry(ctx, func(ctx context.Context) error {
		return b.Apply(ctx, r.indexer)
	})
	if err != nil {
		return fmt.Errorf("failed to write batch after %d attempts: %w", r.config.MaxRetries, err)
	}
	tracker.Add(b.Len())
	return nil
}

func (r *Reindexer) retry(ctx context.Context, op func(context.Context) error) error {
	return RetryWithBackoff(ctx, r.logger, op, r.config.MaxRetries, r.config.RetryDelay)
}

func taxonomyIDs(taxonomies []*core.Taxonomy) []core.ID {
	ids := make([]core.ID, len(taxonomies))
	for i, t := range taxonomies {
		ids[i] = t.Id
	}
	return ids
}

func programIDs(programs []*core.Program) []core.ID {
	ids := make([]core.ID, len(programs))
	for i, p := range programs {
		ids[i] = p.Id
	}
	return ids
}
