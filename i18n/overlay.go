package i18n

import (
	"context"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// Overlay holds the translations of a batch of entities for one language.
// A nil Overlay is valid and translates nothing.
type Overlay struct {
	language string
	byKind   map[core.EntityKind]map[core.ID]*core.Translation
}

// Request lists the entities whose translations should be loaded, by kind.
type Request map[core.EntityKind][]core.ID

// Add appends id to the kind's list.
func (r Request) Add(kind core.EntityKind, id core.ID) {
	r[kind] = append(r[kind], id)
}

// LoadOverlay loads the translations listed in req. It returns a nil overlay
// when language is the default language or repo is nil.
func LoadOverlay(ctx context.Context, repo storage.TranslationRepository, language, defaultLanguage string, req Request) (*Overlay, error) {
	if repo == nil || language == "" || language == defaultLanguage {
		return nil, nil
	}
	o := &Overlay{
		language: language,
		byKind:   make(map[core.EntityKind]map[core.ID]*core.Translation, len(req)),
	}
	for kind, ids := range req {
		if len(ids) == 0 {
			continue
		}
		found, err := repo.GetTranslations(ctx, kind, language, ids...)
		if err != nil {
			return nil, err
		}
		o.byKind[kind] = found
	}
	return o, nil
}

// Language returns the overlay's language, or "" for a nil overlay.
func (o *Overlay) Language() string {
	if o == nil {
		return ""
	}
	return o.language
}

// Text returns the translated field of an entity, or fallback when there is none.
func (o *Overlay) Text(kind core.EntityKind, id core.ID, field, fallback string) string {
	if o == nil {
		return fallback
	}
	tr, ok := o.byKind[kind][id]
	if !ok {
		return fallback
	}
	if v := tr.Fields[field]; v != "" {
		return v
	}
	return fallback
}
