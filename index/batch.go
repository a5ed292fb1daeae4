package index

import (
	"context"
	"fmt"

	"github.com/poiesic/carefind/core"
)

// Batch is an update of one per-language index: documents to write and
// documents to remove.
type Batch struct {
	Index     string
	Documents []Document
	Removed   []core.ID
}

// Len returns the number of entities in the batch.
func (b Batch) Len() int {
	return len(b.Documents) + len(b.Removed)
}

// Apply writes the batch to idx.
func (b Batch) Apply(ctx context.Context, idx Indexer) error {
	if len(b.Documents) > 0 {
		if err := idx.Index(ctx, b.Index, b.Documents...); err != nil {
			return fmt.Errorf("indexing %s: %w", b.Index, err)
		}
	}
	if len(b.Removed) > 0 {
		if err := idx.Delete(ctx, b.Index, b.Removed...); err != nil {
			return fmt.Errorf("removing from %s: %w", b.Index, err)
		}
	}
	return nil
}

// ProgramBatch indexes enabled programs and removes the others.
// translations are keyed by program id and may be nil.
func ProgramBatch(language string, programs []*core.Program, translations map[core.ID]*core.Translation) Batch {
	b := Batch{Index: Name(Programs, language)}
	for _, p := range programs {
		if p.Status.IsEnabled() {
			b.Documents = append(b.Documents, ProgramDocument(p, translations[p.Id]))
		} else {
			b.Removed = append(b.Removed, p.Id)
		}
	}
	return b
}

// TaxonomyBatch indexes enabled taxonomies and removes the others.
func TaxonomyBatch(language string, taxonomies []*core.Taxonomy, translations map[core.ID]*core.Translation) Batch {
	b := Batch{Index: Name(Taxonomies, language)}
	for _, t := range taxonomies {
		if t.Status.IsEnabled() {
			b.Documents = append(b.Documents, TaxonomyDocument(t, translations[t.Id]))
		} else {
			b.Removed = append(b.Removed, t.Id)
		}
	}
	return b
}

// SiteBatch indexes listed sites and removes the others. Site documents are
// not translated.
func SiteBatch(language string, sites []*core.Site) Batch {
	b := Batch{Index: Name(Sites, language)}
	for _, s := range sites {
		if s.Status.IsListed() {
			b.Documents = append(b.Documents, SiteDocument(s))
		} else {
			b.Removed = append(b.Removed, s.Id)
		}
	}
	return b
}
