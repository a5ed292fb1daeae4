package index

import (
	"strings"

	"github.com/poiesic/carefind/core"
)

// fieldText returns the translated value of field when present, otherwise fallback.
func fieldText(tr *core.Translation, field, fallback string) string {
	if tr != nil {
		if v, ok := tr.Fields[field]; ok && v != "" {
			return v
		}
	}
	return fallback
}

func joinText(parts ...string) string {
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

// ProgramDocument builds the program index document, overlaying tr when given.
// Keywords are searched but never translated.
func ProgramDocument(p *core.Program, tr *core.Translation) Document {
	name := fieldText(tr, core.FieldName, p.Name)
	description := fieldText(tr, core.FieldDescription, p.Description)
	return Document{
		ID: p.Id,
		Fields: map[string]string{
			AttrID:          string(p.Id),
			AttrName:        name,
			AttrDescription: description,
			AttrKeywords:    p.Keywords,
		},
		Text: joinText(name, description, p.Keywords),
	}
}

// TaxonomyDocument builds the taxonomy index document, overlaying tr when given.
func TaxonomyDocument(t *core.Taxonomy, tr *core.Translation) Document {
	name := fieldText(tr, core.FieldName, t.Name)
	return Document{
		ID: t.Id,
		Fields: map[string]string{
			AttrID:   string(t.Id),
			AttrCode: t.Code,
			AttrName: name,
		},
		Text: name,
	}
}

// SiteDocument builds the site index document. Sites are found by location,
// so the searchable text is only the name.
func SiteDocument(s *core.Site) Document {
	return Document{
		ID: s.Id,
		Fields: map[string]string{
			AttrID:      string(s.Id),
			AttrName:    s.Name,
			AttrZipCode: s.ZipCode,
		},
		Text:        s.Name,
		HasLocation: s.HasLocation,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
	}
}
