package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/i18n"
	"github.com/poiesic/carefind/index"
	"github.com/poiesic/carefind/storage"
)

// DefaultBatchSize is the number of entities indexed by one task.
const DefaultBatchSize = 100

// Repositories are the stores a Pipeline writes to. Translations is optional.
type Repositories struct {
	Taxonomies   storage.TaxonomyRepository
	Agencies     storage.AgencyRepository
	Sites        storage.SiteRepository
	Programs     storage.ProgramRepository
	Offerings    storage.OfferingRepository
	Translations storage.TranslationRepository
}

// Stats counts the records written by Ingest.
type Stats struct {
	Taxonomies      int
	Agencies        int
	Sites           int
	Programs        int
	ProgramServices int
	SitePrograms    int
	Translations    int
	// IndexTasks is the number of indexing tasks submitted.
	IndexTasks int
}

// Pipeline orchestrates the ingestion and indexing of directory records.
type Pipeline struct {
	repos           Repositories
	indexer         index.Indexer
	pool            *ants.Pool
	processors      []processor
	languages       []string
	defaultLanguage string
	batchSize       int
	logger          *slog.Logger

	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent indexing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithLanguages sets the languages indexed. Default is the default language only.
func WithLanguages(languages ...string) Option {
	return func(p *Pipeline) error {
		p.languages = p.languages[:0]
		for _, l := range languages {
			if l = i18n.NormalizeLanguage(l); l != "" {
				p.languages = append(p.languages, l)
			}
		}
		return nil
	}
}

// WithDefaultLanguage sets the language stored records are written in.
func WithDefaultLanguage(language string) Option {
	return func(p *Pipeline) error {
		language = i18n.NormalizeLanguage(language)
		if language == "" {
			return fmt.Errorf("%w: default language", core.ErrEmptyLanguage)
		}
		p.defaultLanguage = language
		return nil
	}
}

// WithBatchSize sets how many entities one indexing task handles.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repos Repositories, indexer index.Indexer, opts ...Option) (*Pipeline, error) {
	switch {
	case repos.Taxonomies == nil:
		return nil, fmt.Errorf("%w: taxonomies", ErrRepositoryRequired)
	case repos.Agencies == nil:
		return nil, fmt.Errorf("%w: agencies", ErrRepositoryRequired)
	case repos.Sites == nil:
		return nil, fmt.Errorf("%w: sites", ErrRepositoryRequired)
	case repos.Programs == nil:
		return nil, fmt.Errorf("%w: programs", ErrRepositoryRequired)
	case repos.Offerings == nil:
		return nil, fmt.Errorf("%w: offerings", ErrRepositoryRequired)
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repos:           repos,
		indexer:         indexer,
		pool:            pool,
		defaultLanguage: "en",
		batchSize:       DefaultBatchSize,
		logger:          slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	if len(p.languages) == 0 {
		p.languages = []string{p.defaultLanguage}
	}

	// Create processors after options are applied (so they get final config)
	tr := translator{repo: repos.Translations, defaultLanguage: p.defaultLanguage}
	p.processors = []processor{
		&taxonomyProcessor{taxonomies: repos.Taxonomies, translator: tr, indexer: indexer, logger: p.logger},
		&programProcessor{programs: repos.Programs, translator: tr, indexer: indexer, logger: p.logger},
		&siteProcessor{sites: repos.Sites, indexer: indexer, logger: p.logger},
	}

	return p, nil
}

// Languages returns the indexed languages.
func (p *Pipeline) Languages() []string {
	return p.languages
}

// Ingest writes a dataset to storage, referenced entities first, and submits
// the changed programs, taxonomies and sites for asynchronous indexing in
// every language. Entities whose translations changed are reindexed too.
// Errors during async indexing are logged and returned by Wait.
func (p *Pipeline) Ingest(ctx context.Context, ds *Dataset) (*Stats, error) {
	stats := &Stats{}
	if ds == nil {
		return stats, nil
	}

	var err error
	if stats.Taxonomies, err = count(p.repos.Taxonomies.AddTaxonomies(ctx, ds.Taxonomies...)); err != nil {
		return stats, fmt.Errorf("adding taxonomies: %w", err)
	}
	if stats.Agencies, err = count(p.repos.Agencies.AddAgencies(ctx, ds.Agencies...)); err != nil {
		return stats, fmt.Errorf("adding agencies: %w", err)
	}
	if stats.Sites, err = count(p.repos.Sites.AddSites(ctx, ds.Sites...)); err != nil {
		return stats, fmt.Errorf("adding sites: %w", err)
	}
	if stats.Programs, err = count(p.repos.Programs.AddPrograms(ctx, ds.Programs...)); err != nil {
		return stats, fmt.Errorf("adding programs: %w", err)
	}
	if stats.ProgramServices, err = count(p.repos.Offerings.AddProgramServices(ctx, ds.ProgramServices...)); err != nil {
		return stats, fmt.Errorf("adding program services: %w", err)
	}
	if stats.SitePrograms, err = count(p.repos.Offerings.AddSitePrograms(ctx, ds.SitePrograms...)); err != nil {
		return stats, fmt.Errorf("adding site programs: %w", err)
	}
	if len(ds.Translations) > 0 {
		if p.repos.Translations == nil {
			return stats, fmt.Errorf("%w: translations", ErrRepositoryRequired)
		}
		if err := p.repos.Translations.AddTranslations(ctx, ds.Translations...); err != nil {
			return stats, fmt.Errorf("adding translations: %w", err)
		}
		stats.Translations = len(ds.Translations)
	}

	changed := changedIDs(ds)
	for _, lang := range p.languages {
		for _, proc := range p.processors {
			ids := changed[proc.kind()]
			for start := 0; start < len(ids); start += p.batchSize {
				chunk := ids[start:min(start+p.batchSize, len(ids))]
				if err := p.submit(proc, lang, chunk); err != nil {
					return stats, err
				}
				stats.IndexTasks++
			}
		}
	}

	p.logger.Info("ingested dataset",
		"records", ds.Size(),
		"languages", len(p.languages),
		"indexTasks", stats.IndexTasks)
	return stats, nil
}

func count[T any](added []T, err error) (int, error) {
	return len(added), err
}

// changedIDs lists the indexed entities touched by a dataset, by kind.
func changedIDs(ds *Dataset) map[core.EntityKind][]core.ID {
	changed := make(map[core.EntityKind][]core.ID)
	seen := make(map[core.EntityKind]map[core.ID]bool)
	add := func(kind core.EntityKind, id core.ID) {
		if seen[kind] == nil {
			seen[kind] = make(map[core.ID]bool)
		}
		if !seen[kind][id] {
			seen[kind][id] = true
			changed[kind] = append(changed[kind], id)
		}
	}

	for _, t := range ds.Taxonomies {
		add(core.KindTaxonomy, t.Id)
	}
	for _, p := range ds.Programs {
		add(core.KindProgram, p.Id)
	}
	for _, s := range ds.Sites {
		add(core.KindSite, s.Id)
	}
	for _, tr := range ds.Translations {
		if tr.Kind == core.KindProgram || tr.Kind == core.KindTaxonomy {
			add(tr.Kind, tr.EntityId)
		}
	}
	return changed
}

func (p *Pipeline) submit(proc processor, language string, ids []core.ID) error {
	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		if err := proc.process(context.Background(), language, ids...); err != nil {
			p.logger.Error("error indexing", "kind", proc.kind(), "language", language, "err", err)
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
	})
	if err != nil {
		p.wg.Done()
		return fmt.Errorf("submitting %s indexing: %w", proc.kind(), err)
	}
	return nil
}

// Wait blocks until every submitted indexing task has finished and returns
// their errors joined. The errors are cleared.
func (p *Pipeline) Wait() error {
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	err := errors.Join(p.errs...)
	p.errs = nil
	return err
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
