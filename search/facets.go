package search

import (
	"context"
	"time"

	"github.com/poiesic/carefind/facet"
)

// Facets returns the summary of the result set identified by handle. It is
// nil when the result set has expired or was never computed.
func (s *Searcher) Facets(ctx context.Context, handle Handle) (*facet.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.cachedSummary(handle), nil
}

// FacetsForInput returns the summary of the result set of an input, waiting
// briefly for a concurrent Search to produce it. Facets never run a search:
// when no result set appears the summary is nil.
func (s *Searcher) FacetsForInput(ctx context.Context, in Input, opts Options) (*facet.Summary, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	handle, err := newQuery(in, opts, s.defaultLanguage).handle()
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		if summary := s.cachedSummary(handle); summary != nil {
			return summary, nil
		}
		if attempt >= s.facetRetries {
			s.logger.Debug("no result set for facets", "handle", handle, "attempts", attempt+1)
			return nil, nil
		}

		timer := time.NewTimer(s.facetDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// cachedSummary returns the cached summary, computing it from a cached
// result set when needed.
func (s *Searcher) cachedSummary(handle Handle) *facet.Summary {
	if summary, ok := s.summaries.Get(string(handle)); ok {
		return summary
	}
	entry, ok := s.results.Get(string(handle))
	if !ok {
		return nil
	}
	return s.summary(handle, entry)
}

func (s *Searcher) summary(handle Handle, entry *cached) *facet.Summary {
	if summary, ok := s.summaries.Get(string(handle)); ok {
		return summary
	}
	summary := s.facets.Compute(entry.results, entry.language, s.builder.Dictionary(entry.language))
	// String keys always normalize
	_ = s.summaries.Set(string(handle), summary)
	return summary
}
