package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/carefind/analytics"
	"github.com/poiesic/carefind/i18n"
	"github.com/poiesic/carefind/index"
)

// Suggestion group names, also used as label keys.
const (
	GroupPrograms        = "Programs"
	GroupServices        = "Services"
	GroupRelatedSearches = "Related searches"
	GroupTrending        = "Trending"
)

// DefaultSuggestLimit caps the items of each suggestion group.
const DefaultSuggestLimit = 10

// SuggestOptions configures Suggest.
type SuggestOptions struct {
	// Limit caps the items of each group.
	Limit int
	// Taxonomies enables the Services group.
	Taxonomies bool
	// Trending enables the Trending group. It needs a recorder.
	Trending bool
	// Related enables the Related searches group. It needs a recorder.
	Related bool
	// TrendingOptions select which searches count as trending.
	TrendingOptions analytics.TrendingOptions
}

// DefaultSuggestOptions enables every group.
func DefaultSuggestOptions() SuggestOptions {
	return SuggestOptions{
		Limit:           DefaultSuggestLimit,
		Taxonomies:      true,
		Trending:        true,
		Related:         true,
		TrendingOptions: analytics.DefaultTrendingOptions(),
	}
}

// Suggestion is one completion. Searches from analytics have synthetic
// negative ids.
type Suggestion struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Code string `json:"code,omitempty"`
}

// SuggestionGroup is a labeled list of suggestions.
type SuggestionGroup struct {
	Name  string       `json:"name"`
	Label string       `json:"label"`
	Items []Suggestion `json:"items"`
}

// Suggestions are the non-empty groups for a prefix.
type Suggestions struct {
	Groups []*SuggestionGroup `json:"groups"`
}

// Group returns the named group, or nil.
func (s *Suggestions) Group(name string) *SuggestionGroup {
	for _, g := range s.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Suggest completes partially typed search text. Empty text only gives
// trending searches. userID is excluded from related searches.
func (s *Searcher) Suggest(ctx context.Context, text, userID, language string) (*Suggestions, error) {
	language = i18n.NormalizeLanguage(language)
	if language == "" {
		language = s.defaultLanguage
	}
	text = strings.TrimSpace(text)
	dict := s.builder.Dictionary(language)
	out := &Suggestions{}

	add := func(name string, items []Suggestion) {
		if len(items) > s.suggest.Limit && s.suggest.Limit > 0 {
			items = items[:s.suggest.Limit]
		}
		if len(items) > 0 {
			out.Groups = append(out.Groups, &SuggestionGroup{Name: name, Label: dict.T(name), Items: items})
		}
	}

	if text != "" {
		programs, err := s.suggestPrograms(ctx, text, language)
		if err != nil {
			return nil, err
		}
		add(GroupPrograms, programs)

		if s.suggest.Taxonomies {
			services, err := s.suggestTaxonomies(ctx, text, language)
			if err != nil {
				return nil, err
			}
			add(GroupServices, services)
		}

		if s.suggest.Related && s.recorder != nil {
			related, err := s.recorder.RelatedSearches(ctx, text, userID)
			if err != nil {
				return nil, fmt.Errorf("loading related searches: %w", err)
			}
			add(GroupRelatedSearches, synthetic(related, 1001))
		}
	}

	if s.suggest.Trending && s.recorder != nil {
		trending, err := s.recorder.TrendingSearches(ctx, s.suggest.TrendingOptions)
		if err != nil {
			return nil, fmt.Errorf("loading trending searches: %w", err)
		}
		add(GroupTrending, synthetic(trending, 1))
	}

	return out, nil
}

func (s *Searcher) suggestPrograms(ctx context.Context, text, language string) ([]Suggestion, error) {
	hits, err := s.index.Search(ctx, index.Name(index.Programs, language), text, index.Options{
		Limit:                s.searchLimit,
		AttributesToRetrieve: []string{index.AttrID, index.AttrName},
	})
	if err != nil {
		return nil, fmt.Errorf("searching programs: %w", err)
	}

	seen := make(map[string]bool)
	var items []Suggestion
	for _, h := range hits {
		name := h.Fields[index.AttrName]
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, Suggestion{ID: string(h.ID), Text: name})
	}
	return items, nil
}

func (s *Searcher) suggestTaxonomies(ctx context.Context, text, language string) ([]Suggestion, error) {
	hits, err := s.index.Search(ctx, index.Name(index.Taxonomies, language), text, index.Options{
		Limit:                s.searchLimit,
		AttributesToRetrieve: []string{index.AttrID, index.AttrName, index.AttrCode},
	})
	if err != nil {
		return nil, fmt.Errorf("searching taxonomies: %w", err)
	}

	var items []Suggestion
	for _, h := range hits {
		code := h.Fields[index.AttrCode]
		// The index can lag behind deactivations
		if _, ok, err := s.taxonomies.ByCode(ctx, language, code); err != nil {
			return nil, err
		} else if !ok {
			continue
		}
		items = append(items, Suggestion{ID: string(h.ID), Text: h.Fields[index.AttrName], Code: code})
	}
	return items, nil
}

// synthetic gives search texts the ids -(offset), -(offset+1), ...
func synthetic(texts []string, offset int) []Suggestion {
	items := make([]Suggestion, len(texts))
	for i, text := range texts {
		items[i] = Suggestion{ID: strconv.Itoa(-(i + offset)), Text: text}
	}
	return items
}
