package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/carefind/analytics"
	"github.com/poiesic/carefind/cache"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/facet"
	"github.com/poiesic/carefind/i18n"
	"github.com/poiesic/carefind/index"
	"github.com/poiesic/carefind/result"
	"github.com/poiesic/carefind/taxonomy"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSearchLimit caps full-text hits per index.
	DefaultSearchLimit = 500
	// DefaultSiteLimit caps the sites considered by a geographic query.
	DefaultSiteLimit = 1000
	// DefaultFacetRetries is how many more times FacetsForInput looks for a result set.
	DefaultFacetRetries = 2
	// DefaultFacetRetryDelay is the pause between those attempts.
	DefaultFacetRetryDelay = 250 * time.Millisecond
)

// cached is one unfiltered result set.
type cached struct {
	results  []*result.Result
	language string
}

// outcome is what running a query produces, shared by concurrent callers.
type outcome struct {
	results []*result.Result
	event   string
	nearby  int
}

// Searcher answers directory queries.
type Searcher struct {
	repos      result.Repositories
	index      index.Searcher
	taxonomies *taxonomy.Index
	builder    *result.Builder
	facets     *facet.Engine
	recorder   *analytics.Recorder
	labels     *i18n.Labels

	results   *cache.Cache[*cached]
	summaries *cache.Cache[*facet.Summary]
	group     singleflight.Group

	defaultLanguage string
	cacheTTL        time.Duration
	searchLimit     int
	siteLimit       int
	facetRetries    int
	facetDelay      time.Duration
	suggest         SuggestOptions
	registerer      prometheus.Registerer
	metrics         *metrics
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithLabels sets the label dictionaries used to render results and facets.
func WithLabels(labels *i18n.Labels) Option {
	return func(s *Searcher) error {
		s.labels = labels
		return nil
	}
}

// WithDefaultLanguage sets the language stored records are written in.
func WithDefaultLanguage(language string) Option {
	return func(s *Searcher) error {
		language = i18n.NormalizeLanguage(language)
		if language == "" {
			return fmt.Errorf("%w: default language", core.ErrEmptyLanguage)
		}
		s.defaultLanguage = language
		return nil
	}
}

// WithRecorder enables analytics events and the trending and related suggestions.
func WithRecorder(recorder *analytics.Recorder) Option {
	return func(s *Searcher) error {
		s.recorder = recorder
		return nil
	}
}

// WithFacetEngine replaces the default facet engine.
func WithFacetEngine(engine *facet.Engine) Option {
	return func(s *Searcher) error {
		s.facets = engine
		return nil
	}
}

// WithCacheTTL sets how long result sets and facet summaries are kept.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Searcher) error {
		if ttl <= 0 {
			return fmt.Errorf("%w: %s", cache.ErrInvalidTTL, ttl)
		}
		s.cacheTTL = ttl
		return nil
	}
}

// WithSearchLimit caps full-text hits per index.
func WithSearchLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit <= 0 {
			return fmt.Errorf("%w: search limit %d", ErrInvalidLimit, limit)
		}
		s.searchLimit = limit
		return nil
	}
}

// WithSiteLimit caps the sites a geographic query considers.
func WithSiteLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit <= 0 {
			return fmt.Errorf("%w: site limit %d", ErrInvalidLimit, limit)
		}
		s.siteLimit = limit
		return nil
	}
}

// WithFacetRetry sets how many more times FacetsForInput looks for a result
// set, and the pause between attempts.
func WithFacetRetry(retries int, delay time.Duration) Option {
	return func(s *Searcher) error {
		if retries < 0 || delay < 0 {
			return fmt.Errorf("%w: facet retry %d every %s", ErrInvalidLimit, retries, delay)
		}
		s.facetRetries = retries
		s.facetDelay = delay
		return nil
	}
}

// WithSuggestOptions configures Suggest.
func WithSuggestOptions(opts SuggestOptions) Option {
	return func(s *Searcher) error {
		s.suggest = opts
		return nil
	}
}

// WithRegisterer registers the search metrics. Without it they are collected
// but not registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Searcher) error {
		s.registerer = reg
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	repos result.Repositories,
	idx index.Searcher,
	taxonomies *taxonomy.Index,
	opts ...Option,
) (*Searcher, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if taxonomies == nil {
		return nil, ErrTaxonomyIndexRequired
	}
	if repos.Taxonomies == nil {
		return nil, ErrTaxonomyRepositoryRequired
	}

	s := &Searcher{
		repos:           repos,
		index:           idx,
		taxonomies:      taxonomies,
		defaultLanguage: "en",
		cacheTTL:        cache.DefaultTTL,
		searchLimit:     DefaultSearchLimit,
		siteLimit:       DefaultSiteLimit,
		facetRetries:    DefaultFacetRetries,
		facetDelay:      DefaultFacetRetryDelay,
		suggest:         DefaultSuggestOptions(),
		logger:          slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	var err error
	s.builder, err = result.NewBuilder(repos,
		result.WithLogger(s.logger),
		result.WithLabels(s.labels),
		result.WithDefaultLanguage(s.defaultLanguage),
	)
	if err != nil {
		return nil, err
	}
	if s.facets == nil {
		if s.facets, err = facet.NewEngine(facet.WithLogger(s.logger)); err != nil {
			return nil, err
		}
	}
	if s.results, err = cache.New[*cached](cache.WithTTL(s.cacheTTL)); err != nil {
		return nil, err
	}
	if s.summaries, err = cache.New[*facet.Summary](cache.WithTTL(s.cacheTTL)); err != nil {
		return nil, err
	}
	s.metrics = newMetrics(s.registerer)

	return s, nil
}

// Search runs a query, or reuses its cached result set, and applies the
// input's facet filters.
func (s *Searcher) Search(ctx context.Context, in Input, opts Options) (*Response, error) {
	return s.SearchWithMonitor(ctx, in, opts, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each
// stage of an executed query.
func (s *Searcher) SearchWithMonitor(ctx context.Context, in Input, opts Options, monitor SearchMonitor) (*Response, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	q := newQuery(in, opts, s.defaultLanguage)
	handle, err := q.handle()
	if err != nil {
		return nil, err
	}

	if entry, ok := s.results.Get(string(handle)); ok {
		s.metrics.requests.WithLabelValues("hit").Inc()
		return s.respond(handle, entry, in.Filters), nil
	}
	s.metrics.requests.WithLabelValues("miss").Inc()

	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	// Shared by every caller with this handle, so it must outlive the first one
	detached := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(string(handle), func() (any, error) {
		start := time.Now()
		out, err := s.execute(detached, q, in, monitor)
		if err != nil {
			return nil, err
		}
		s.metrics.duration.Observe(time.Since(start).Seconds())

		// String keys always normalize
		_ = s.results.Set(string(handle), &cached{results: out.results, language: q.Language})
		s.summaries.Delete(string(handle))
		return out, nil
	})
	if err != nil {
		s.logger.Error("search failed", "handle", handle, "err", err)
		return nil, err
	}
	if shared {
		s.logger.Debug("search shared with a concurrent caller", "handle", handle)
	}

	out := v.(*outcome)
	s.recordEmpty(ctx, opts.AnalyticsUserID, q, out)
	return s.respond(handle, &cached{results: out.results, language: q.Language}, in.Filters), nil
}

func (s *Searcher) respond(handle Handle, entry *cached, filters facet.Filters) *Response {
	resp := &Response{Results: entry.results, Handle: handle, Total: len(entry.results)}
	if filters.IsEmpty() {
		return resp
	}
	resp.Results = s.summary(handle, entry).Filter(entry.results, filters)
	return resp
}

func (s *Searcher) execute(ctx context.Context, q query, in Input, monitor SearchMonitor) (*outcome, error) {
	monitor.Start(in)

	programIDs, err := s.candidates(ctx, q)
	if err != nil {
		return nil, err
	}
	monitor.AfterCandidates(programIDs)

	if q.Taxonomies != "" {
		if programIDs, err = s.taxonomyPrograms(ctx, q.Language, q.Taxonomies); err != nil {
			return nil, err
		}
		monitor.AfterTaxonomyFilter(programIDs)
	}

	sites, err := s.geoSites(ctx, q)
	if err != nil {
		return nil, err
	}
	monitor.AfterGeo(sites, q.geoConstrained())

	offerings, err := s.repos.Offerings.GetSiteProgramsByPrograms(ctx, programIDs...)
	if err != nil {
		return nil, fmt.Errorf("loading offerings: %w", err)
	}
	constrained := offerings
	if q.geoConstrained() {
		constrained = restrict(offerings, sites)
	}
	monitor.AfterJoin(constrained)

	records, err := s.builder.Join(ctx, constrained)
	if err != nil {
		return nil, err
	}
	results, err := s.builder.Render(ctx, records, q.Language)
	if err != nil {
		return nil, err
	}

	out := &outcome{results: results}
	if len(results) == 0 {
		out.event = core.EventNoResults
		if q.geoConstrained() && len(offerings) > 0 {
			everywhere, err := s.builder.Join(ctx, offerings)
			if err != nil {
				return nil, err
			}
			if len(everywhere) > 0 {
				out.event = core.EventNoResultNearby
				out.nearby = len(everywhere)
			}
		}
	}

	s.logger.Debug("search executed",
		"text", q.SearchText,
		"taxonomies", q.Taxonomies,
		"language", q.Language,
		"programs", len(programIDs),
		"offerings", len(constrained),
		"results", len(results))
	monitor.Finish(results)
	return out, nil
}

// candidates resolves the search text to program ids.
func (s *Searcher) candidates(ctx context.Context, q query) ([]core.ID, error) {
	if q.SearchText == "" {
		programs, err := s.repos.Programs.GetActivePrograms(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading programs: %w", err)
		}
		ids := make([]core.ID, len(programs))
		for i, p := range programs {
			ids[i] = p.Id
		}
		return ids, nil
	}

	t, ok, err := s.taxonomies.ByCode(ctx, q.Language, q.SearchText)
	if err != nil {
		return nil, err
	}
	if ok {
		ids, err := s.programsForTaxonomies(ctx, t.Id)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			return ids, nil
		}
	}

	opts := index.Options{Limit: s.searchLimit, AttributesToRetrieve: []string{index.AttrID}}
	hits, err := s.index.Search(ctx, index.Name(index.Programs, q.Language), q.SearchText, opts)
	if err != nil {
		return nil, fmt.Errorf("searching programs: %w", err)
	}
	ids := hitIDs(hits)

	if q.SearchTaxonomyIndex {
		taxonomyHits, err := s.index.Search(ctx, index.Name(index.Taxonomies, q.Language), q.SearchText, opts)
		if err != nil {
			return nil, fmt.Errorf("searching taxonomies: %w", err)
		}
		more, err := s.programsForTaxonomies(ctx, hitIDs(taxonomyHits)...)
		if err != nil {
			return nil, err
		}
		ids = appendUnique(ids, more...)
	}
	return ids, nil
}

// taxonomyPrograms resolves a comma-separated code list to the ids of the
// active programs linked to any of the codes.
func (s *Searcher) taxonomyPrograms(ctx context.Context, language, codes string) ([]core.ID, error) {
	var taxonomyIDs []core.ID
	for _, code := range strings.Split(codes, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}

		t, ok, err := s.taxonomies.ByCode(ctx, language, code)
		if err != nil {
			return nil, err
		}
		if ok {
			taxonomyIDs = appendUnique(taxonomyIDs, t.Id)
			continue
		}
		if !strings.HasSuffix(code, "*") {
			s.logger.Debug("unknown taxonomy code", "code", code)
			continue
		}

		prefix := strings.TrimSpace(strings.ReplaceAll(code, "*", ""))
		if prefix == "" {
			continue
		}
		matches, err := s.repos.Taxonomies.FindTaxonomiesByCodePrefix(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("finding taxonomies under %s: %w", prefix, err)
		}
		for _, m := range matches {
			taxonomyIDs = appendUnique(taxonomyIDs, m.Id)
		}
	}
	if len(taxonomyIDs) == 0 {
		return nil, nil
	}
	return s.programsForTaxonomies(ctx, taxonomyIDs...)
}

// programsForTaxonomies returns the enabled programs linked to any of the taxonomies.
func (s *Searcher) programsForTaxonomies(ctx context.Context, taxonomyIDs ...core.ID) ([]core.ID, error) {
	if len(taxonomyIDs) == 0 {
		return nil, nil
	}
	ids, err := s.repos.Offerings.GetProgramIDsByTaxonomies(ctx, taxonomyIDs...)
	if err != nil {
		return nil, fmt.Errorf("loading taxonomy programs: %w", err)
	}
	programs, err := s.repos.Programs.GetPrograms(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("loading programs: %w", err)
	}
	enabled := make([]core.ID, 0, len(programs))
	for _, p := range programs {
		if p.Status.IsEnabled() {
			enabled = append(enabled, p.Id)
		}
	}
	return enabled, nil
}

// geoSites returns the sites a query with coordinates is restricted to,
// sorted by distance. Without coordinates there is no geo restriction; a zip
// code alone only travels with the query into the cache key and analytics.
func (s *Searcher) geoSites(ctx context.Context, q query) ([]core.ID, error) {
	if !q.hasLocation() {
		return nil, nil
	}
	opts := index.Options{
		Limit:                s.siteLimit,
		AttributesToRetrieve: []string{index.AttrID},
		Sort:                 []string{index.GeoPointSort(*q.Lat, *q.Lng)},
	}
	if q.Radius > 0 {
		opts.Filter = []string{index.GeoRadiusFilter(*q.Lat, *q.Lng, q.Radius*index.MetersPerMile)}
	}
	hits, err := s.index.Search(ctx, index.Name(index.Sites, q.Language), "", opts)
	if err != nil {
		return nil, fmt.Errorf("searching sites: %w", err)
	}
	return hitIDs(hits), nil
}

// restrict keeps offerings at the given sites, sorted by the rank of their
// site. Offerings at one site keep their order.
func restrict(offerings []*core.SiteProgram, sites []core.ID) []*core.SiteProgram {
	rank := make(map[core.ID]int, len(sites))
	for i, id := range sites {
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}

	kept := make([]*core.SiteProgram, 0, len(offerings))
	for _, o := range offerings {
		if _, ok := rank[o.SiteId]; ok {
			kept = append(kept, o)
		}
	}
	slices.SortStableFunc(kept, func(a, b *core.SiteProgram) int {
		return cmp.Compare(rank[a.SiteId], rank[b.SiteId])
	})
	return kept
}

func hitIDs(hits []index.Hit) []core.ID {
	ids := make([]core.ID, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

func appendUnique(ids []core.ID, more ...core.ID) []core.ID {
	for _, id := range more {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// recordEmpty emits the analytics event of an empty result set.
// Failures are logged and do not fail the search.
func (s *Searcher) recordEmpty(ctx context.Context, userID string, q query, out *outcome) {
	if out.event == "" {
		return
	}
	s.metrics.emptyResults.WithLabelValues(out.event).Inc()
	if userID == "" || s.recorder == nil {
		return
	}

	data := map[string]string{}
	if q.SearchText != "" {
		data[analytics.DataTerms] = q.SearchText
	}
	if q.Taxonomies != "" {
		data[analytics.DataTaxonomies] = q.Taxonomies
	}
	if q.ZipCode != "" {
		data[analytics.DataZipCode] = q.ZipCode
	}
	if q.hasLocation() {
		data[analytics.DataLat] = strconv.FormatFloat(*q.Lat, 'f', -1, 64)
		data[analytics.DataLng] = strconv.FormatFloat(*q.Lng, 'f', -1, 64)
	}
	if q.Radius > 0 {
		data[analytics.DataRadius] = strconv.FormatFloat(q.Radius, 'f', -1, 64)
	}
	if out.event == core.EventNoResultNearby {
		data[analytics.DataCount] = strconv.Itoa(out.nearby)
	}

	if _, err := s.recorder.Record(ctx, userID, out.event, data); err != nil {
		s.logger.Warn("recording empty search failed", "event", out.event, "user", userID, "err", err)
	}
}

// BuildResult renders a single offering without touching the result cache.
// Missing or inactive entities give an error wrapping storage.ErrNotFound.
func (s *Searcher) BuildResult(ctx context.Context, offeringID core.ID, language string) (*result.Result, error) {
	language = i18n.NormalizeLanguage(language)
	if language == "" {
		language = s.defaultLanguage
	}
	return s.builder.Build(ctx, offeringID, language)
}

// DefaultLanguage returns the language used when a query names none.
func (s *Searcher) DefaultLanguage() string {
	return s.defaultLanguage
}
