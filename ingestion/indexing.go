package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/index"
	"github.com/poiesic/carefind/storage"
)

// translator loads the translations of a batch, or nothing for the default language.
type translator struct {
	repo            storage.TranslationRepository
	defaultLanguage string
}

func (t translator) load(ctx context.Context, kind core.EntityKind, language string, ids []core.ID) (map[core.ID]*core.Translation, error) {
	if t.repo == nil || language == t.defaultLanguage {
		return nil, nil
	}
	found, err := t.repo.GetTranslations(ctx, kind, language, ids...)
	if err != nil {
		return nil, fmt.Errorf("loading %s translations: %w", kind, err)
	}
	return found, nil
}

type programProcessor struct {
	programs   storage.ProgramRepository
	translator translator
	indexer    index.Indexer
	logger     *slog.Logger
}

var _ processor = (*programProcessor)(nil)

func (p *programProcessor) kind() core.EntityKind { return core.KindProgram }

func (p *programProcessor) process(ctx context.Context, language string, ids ...core.ID) error {
	programs, err := p.programs.GetPrograms(ctx, ids...)
	if err != nil {
		return fmt.Errorf("loading programs: %w", err)
	}
	translations, err := p.translator.load(ctx, core.KindProgram, language, ids)
	if err != nil {
		return err
	}
	batch := index.ProgramBatch(language, programs, translations)
	p.logger.Debug("indexing programs", "index", batch.Index, "documents", len(batch.Documents), "removed", len(batch.Removed))
	return batch.Apply(ctx, p.indexer)
}

type taxonomyProcessor struct {
	taxonomies storage.TaxonomyRepository
	translator translator
	indexer    index.Indexer
	logger     *slog.Logger
}

var _ processor = (*taxonomyProcessor)(nil)

func (p *taxonomyProcessor) kind() core.EntityKind { return core.KindTaxonomy }

func (p *taxonomyProcessor) process(ctx context.Context, language string, ids ...core.ID) error {
	taxonomies, err := p.taxonomies.GetTaxonomies(ctx, ids...)
	if err != nil {
		return fmt.Errorf("loading taxonomies: %w", err)
	}
	translations, err := p.translator.load(ctx, core.KindTaxonomy, language, ids)
	if err != nil {
		return err
	}
	batch := index.TaxonomyBatch(language, taxonomies, translations)
	p.logger.Debug("indexing taxonomies", "index", batch.Index, "documents", len(batch.Documents), "removed", len(batch.Removed))
	return batch.Apply(ctx, p.indexer)
}

type siteProcessor struct {
	sites   storage.SiteRepository
	indexer index.Indexer
	logger  *slog.Logger
}

var _ processor = (*siteProcessor)(nil)

func (p *siteProcessor) kind() core.EntityKind { return core.KindSite }

func (p *siteProcessor) process(ctx context.Context, language string, ids ...core.ID) error {
	sites, err := p.sites.GetSites(ctx, ids...)
	if err != nil {
		return fmt.Errorf("loading sites: %w", err)
	}
	batch := index.SiteBatch(language, sites)
	p.logger.Debug("indexing sites", "index", batch.Index, "documents", len(batch.Documents), "removed", len(batch.Removed))
	return batch.Apply(ctx, p.indexer)
}
