package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/carefind/analytics"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/facet"
	"github.com/poiesic/carefind/index/sqlite"
	"github.com/poiesic/carefind/internal/fixture"
	"github.com/poiesic/carefind/result"
	"github.com/poiesic/carefind/storage"
	"github.com/poiesic/carefind/storage/badger"
	"github.com/poiesic/carefind/taxonomy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock is a settable clock for the analytics recorder.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store    *badger.Store
	searcher *Searcher
	recorder *analytics.Recorder
	clock    *testClock
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, fixture.Load(ctx, store))

	idx, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	require.NoError(t, fixture.Index(ctx, idx, "en", "es"))

	taxonomies, err := taxonomy.NewIndex(store.Taxonomies, taxonomy.WithTranslations(store.Translations))
	require.NoError(t, err)

	clock := &testClock{now: time.Now().UTC()}
	recorder, err := analytics.NewRecorder(store.Activities, analytics.WithClock(clock.Now))
	require.NoError(t, err)

	opts = append([]Option{WithRecorder(recorder), WithRegisterer(prometheus.NewRegistry())}, opts...)
	s, err := NewSearcher(repositories(store), idx, taxonomies, opts...)
	require.NoError(t, err)

	return &testEnv{store: store, searcher: s, recorder: recorder, clock: clock}
}

func repositories(store *badger.Store) result.Repositories {
	return result.Repositories{
		Programs:     store.Programs,
		Sites:        store.Sites,
		Agencies:     store.Agencies,
		Offerings:    store.Offerings,
		Taxonomies:   store.Taxonomies,
		Translations: store.Translations,
	}
}

func ids(results []*result.Result) []core.ID {
	out := make([]core.ID, 0, len(results))
	for _, r := range results {
		out = append(out, r.ID)
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func TestNewSearcher(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	idx, err := sqlite.OpenMemory()
	require.NoError(t, err)
	defer idx.Close()

	taxonomies, err := taxonomy.NewIndex(store.Taxonomies)
	require.NoError(t, err)

	t.Run("valid configuration", func(t *testing.T) {
		s, err := NewSearcher(repositories(store), idx, taxonomies)
		require.NoError(t, err)
		assert.Equal(t, "en", s.DefaultLanguage())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		s, err := NewSearcher(repositories(store), idx, taxonomies, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, s.logger)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewSearcher(repositories(store), nil, taxonomies)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("nil taxonomy index", func(t *testing.T) {
		_, err := NewSearcher(repositories(store), idx, nil)
		assert.Equal(t, ErrTaxonomyIndexRequired, err)
	})

	t.Run("nil taxonomy repository", func(t *testing.T) {
		repos := repositories(store)
		repos.Taxonomies = nil
		_, err := NewSearcher(repos, idx, taxonomies)
		assert.Equal(t, ErrTaxonomyRepositoryRequired, err)
	})

	t.Run("missing builder repository", func(t *testing.T) {
		repos := repositories(store)
		repos.Programs = nil
		_, err := NewSearcher(repos, idx, taxonomies)
		assert.ErrorIs(t, err, result.ErrProgramRepositoryRequired)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewSearcher(repositories(store), idx, taxonomies, WithSearchLimit(0))
		assert.ErrorIs(t, err, ErrInvalidLimit)

		_, err = NewSearcher(repositories(store), idx, taxonomies, WithCacheTTL(0))
		assert.Error(t, err)

		_, err = NewSearcher(repositories(store), idx, taxonomies, WithDefaultLanguage(""))
		assert.ErrorIs(t, err, core.ErrEmptyLanguage)
	})
}

func TestSearch_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.searcher.Search(ctx, Input{Lat: ptr(21.3)}, Options{})
	assert.ErrorIs(t, err, ErrInvalidLocation)

	_, err = env.searcher.Search(ctx, Input{Lat: ptr(95), Lng: ptr(0)}, Options{})
	assert.ErrorIs(t, err, ErrInvalidLocation)

	_, err = env.searcher.Search(ctx, Input{Radius: -1}, Options{})
	assert.ErrorIs(t, err, ErrInvalidRadius)
}

func TestSearch_Everything(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.searcher.Search(context.Background(), Input{}, Options{})
	require.NoError(t, err)

	// Inactive sites, programs and agencies never appear
	assert.Equal(t, []core.ID{"o1", "o2", "o3", "o4", "o5", "o6", "o10"}, ids(resp.Results))
	assert.Equal(t, 7, resp.Total)
	assert.NotEmpty(t, resp.Handle)
}

func TestSearch_RepeatIsStable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.searcher.Search(ctx, Input{SearchText: "food"}, Options{})
	require.NoError(t, err)
	second, err := env.searcher.Search(ctx, Input{SearchText: "  food "}, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Handle, second.Handle)
	assert.Equal(t, ids(first.Results), ids(second.Results))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.searcher.metrics.requests.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.searcher.metrics.requests.WithLabelValues("hit")))

	t.Run("language selects another result set", func(t *testing.T) {
		es, err := env.searcher.Search(ctx, Input{SearchText: "food"}, Options{Language: "es"})
		require.NoError(t, err)
		assert.NotEqual(t, first.Handle, es.Handle)
	})

	t.Run("filters share the result set", func(t *testing.T) {
		filtered, err := env.searcher.Search(ctx, Input{
			SearchText: "food",
			Filters:    facet.Filters{OpenNow: true},
		}, Options{})
		require.NoError(t, err)
		assert.Equal(t, first.Handle, filtered.Handle)
	})
}

func TestSearch_FreeText(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.searcher.Search(context.Background(), Input{SearchText: "food"}, Options{})
	require.NoError(t, err)

	// Youth Meals matches but its agency is inactive
	assert.ElementsMatch(t, []core.ID{"o1", "o2", "o3", "o10"}, ids(resp.Results))
}

func TestSearch_NoDuplicates(t *testing.T) {
	env := newTestEnv(t)

	// Food Pantry is reachable through the program and taxonomy indexes
	resp, err := env.searcher.Search(context.Background(), Input{SearchText: "food"},
		Options{SearchTaxonomyIndex: true})
	require.NoError(t, err)

	got := ids(resp.Results)
	assert.ElementsMatch(t, []core.ID{"o1", "o2", "o3", "o10"}, got)
}

func TestSearch_TaxonomyIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.searcher.Search(ctx, Input{SearchText: "rights"}, Options{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)

	resp, err = env.searcher.Search(ctx, Input{SearchText: "rights"}, Options{SearchTaxonomyIndex: true})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"o6"}, ids(resp.Results))
}

func TestSearch_ExactCode(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.searcher.Search(context.Background(), Input{SearchText: "BD-1800.2000"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"o1", "o2", "o3"}, ids(resp.Results))
}

func TestSearch_Taxonomies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		text       string
		taxonomies string
		want       []core.ID
	}{
		{name: "exact code", taxonomies: "LV-0500.0500", want: []core.ID{"o6"}},
		{name: "wildcard includes children", taxonomies: "LV-0500*", want: []core.ID{"o6"}},
		{name: "wildcard over several", taxonomies: "BD-1800*", want: []core.ID{"o1", "o2", "o3", "o10"}},
		{name: "code list", taxonomies: "BH-1800, LV-0500.0500", want: []core.ID{"o4", "o5", "o6"}},
		{name: "replaces text candidates", text: "food", taxonomies: "LV-0500.0500", want: []core.ID{"o6"}},
		{name: "inactive code", taxonomies: "BD-1900", want: []core.ID{}},
		{name: "inactive wildcard", taxonomies: "BD-19*", want: []core.ID{}},
		{name: "bare wildcard", taxonomies: "*", want: []core.ID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.searcher.Search(ctx, Input{SearchText: tt.text, Taxonomies: tt.taxonomies}, Options{})
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids(resp.Results))
		})
	}
}

func TestSearch_Radius(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("within radius ordered by distance", func(t *testing.T) {
		resp, err := env.searcher.Search(ctx, Input{
			Lat:    ptr(fixture.Honolulu.Lat),
			Lng:    ptr(fixture.Honolulu.Lng),
			Radius: 5,
		}, Options{})
		require.NoError(t, err)
		assert.Equal(t, []core.ID{"o1", "o5", "o6", "o4"}, ids(resp.Results))
	})

	t.Run("no radius sorts every site", func(t *testing.T) {
		resp, err := env.searcher.Search(ctx, Input{
			Lat: ptr(fixture.Honolulu.Lat),
			Lng: ptr(fixture.Honolulu.Lng),
		}, Options{})
		require.NoError(t, err)
		assert.Equal(t, []core.ID{"o1", "o5", "o6", "o4", "o2", "o10", "o3"}, ids(resp.Results))
	})

	t.Run("zip code without coordinates does not filter", func(t *testing.T) {
		all, err := env.searcher.Search(ctx, Input{}, Options{})
		require.NoError(t, err)

		resp, err := env.searcher.Search(ctx, Input{ZipCode: "96744"}, Options{})
		require.NoError(t, err)
		assert.Equal(t, ids(all.Results), ids(resp.Results))
		assert.NotEqual(t, all.Handle, resp.Handle)
	})
}

func TestSearch_ZipCodeOnlyEmptyIsNoResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.searcher.Search(ctx, Input{SearchText: "zzzz", ZipCode: "00000"},
		Options{AnalyticsUserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)

	activities, err := env.store.Activities.GetActivitiesSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, core.EventNoResults, activities[0].Event)
	assert.Equal(t, "00000", activities[0].Data[analytics.DataZipCode])
	assert.Empty(t, activities[0].Data[analytics.DataCount])
}

func TestSearch_Confidential(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.searcher.Search(context.Background(), Input{Taxonomies: "BH-1800"}, Options{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	byID := map[core.ID]*result.Result{}
	for _, r := range resp.Results {
		byID[r.ID] = r
	}
	assert.Nil(t, byID["o4"].LocationLat)
	assert.NotNil(t, byID["o5"].LocationLat)
}

func TestSearch_Translated(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.searcher.Search(context.Background(), Input{SearchText: "despensa"}, Options{Language: "es"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.Equal(t, "Despensa de alimentos", r.ServiceName)
	}
}

func TestSearch_Filters(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.searcher.Search(context.Background(), Input{
		Filters: facet.Filters{Items: map[string][]string{facet.GroupCost: {"Free"}}},
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []core.ID{"o1", "o2", "o3", "o10"}, ids(resp.Results))
	assert.Equal(t, 7, resp.Total)
}

func TestSearch_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	handles := make([]Handle, 8)
	counts := make([]int, 8)
	errs := make([]error, 8)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := env.searcher.Search(ctx, Input{SearchText: "shelter"}, Options{})
			errs[i] = err
			if err == nil {
				handles[i] = resp.Handle
				counts[i] = len(resp.Results)
			}
		}(i)
	}
	wg.Wait()

	for i := range handles {
		require.NoError(t, errs[i])
		assert.Equal(t, handles[0], handles[i])
		assert.Equal(t, 2, counts[i])
	}
}

// recordingMonitor records the stages it saw.
type recordingMonitor struct {
	stages     []string
	candidates int
	geoOrdered bool
}

func (m *recordingMonitor) Start(_ Input) { m.stages = append(m.stages, "start") }
func (m *recordingMonitor) AfterCandidates(ids []core.ID) {
	m.stages = append(m.stages, "candidates")
	m.candidates = len(ids)
}
func (m *recordingMonitor) AfterTaxonomyFilter(_ []core.ID) { m.stages = append(m.stages, "taxonomies") }
func (m *recordingMonitor) AfterGeo(_ []core.ID, ordered bool) {
	m.stages = append(m.stages, "geo")
	m.geoOrdered = ordered
}
func (m *recordingMonitor) AfterJoin(_ []*core.SiteProgram) { m.stages = append(m.stages, "join") }
func (m *recordingMonitor) Finish(_ []*result.Result)       { m.stages = append(m.stages, "finish") }

// cancelingMonitor cancels the caller's context once execution has started.
type cancelingMonitor struct {
	noopMonitor
	cancel context.CancelFunc
}

func (m *cancelingMonitor) Start(_ Input) { m.cancel() }

func TestSearch_ExecutionOutlivesCallerCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, err := env.searcher.SearchWithMonitor(ctx, Input{SearchText: "food"}, Options{}, &cancelingMonitor{cancel: cancel})
	require.NoError(t, err)
	require.Error(t, ctx.Err())
	assert.ElementsMatch(t, []core.ID{"o1", "o2", "o3", "o10"}, ids(resp.Results))

	// The finished result set was cached for the next caller
	again, err := env.searcher.Search(context.Background(), Input{SearchText: "food"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, resp.Handle, again.Handle)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.searcher.metrics.requests.WithLabelValues("hit")))
}

func TestSearchWithMonitor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	in := Input{Lat: ptr(fixture.Honolulu.Lat), Lng: ptr(fixture.Honolulu.Lng)}

	m := &recordingMonitor{}
	_, err := env.searcher.SearchWithMonitor(ctx, in, Options{}, m)
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "candidates", "geo", "join", "finish"}, m.stages)
	assert.Equal(t, 5, m.candidates)
	assert.True(t, m.geoOrdered)

	t.Run("not called on cache hits", func(t *testing.T) {
		again := &recordingMonitor{}
		_, err := env.searcher.SearchWithMonitor(ctx, in, Options{}, again)
		require.NoError(t, err)
		assert.Empty(t, again.stages)
	})
}

func TestSearch_EmptyResultAnalytics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("no results", func(t *testing.T) {
		resp, err := env.searcher.Search(ctx, Input{SearchText: "zzzz"}, Options{AnalyticsUserID: "u1"})
		require.NoError(t, err)
		assert.Empty(t, resp.Results)
	})

	t.Run("no result nearby", func(t *testing.T) {
		env.clock.Advance(time.Second)
		// Tenant Rights is only offered downtown, far outside a mile of Kaneohe
		resp, err := env.searcher.Search(ctx, Input{
			Taxonomies: "LV-0500.0500",
			ZipCode:    "96744",
			Lat:        ptr(21.4022),
			Lng:        ptr(-157.7394),
			Radius:     1,
		}, Options{AnalyticsUserID: "u1"})
		require.NoError(t, err)
		assert.Empty(t, resp.Results)
	})

	t.Run("anonymous searches are counted but not recorded", func(t *testing.T) {
		_, err := env.searcher.Search(ctx, Input{SearchText: "qqqq"}, Options{})
		require.NoError(t, err)
	})

	activities, err := env.store.Activities.GetActivitiesSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, activities, 2)

	assert.Equal(t, core.EventNoResults, activities[0].Event)
	assert.Equal(t, "u1", activities[0].UserId)
	assert.Equal(t, "zzzz", activities[0].Data[analytics.DataTerms])

	assert.Equal(t, core.EventNoResultNearby, activities[1].Event)
	assert.Equal(t, "1", activities[1].Data[analytics.DataCount])
	assert.Equal(t, "96744", activities[1].Data[analytics.DataZipCode])
	assert.Equal(t, "LV-0500.0500", activities[1].Data[analytics.DataTaxonomies])

	assert.Equal(t, 2.0, testutil.ToFloat64(env.searcher.metrics.emptyResults.WithLabelValues(core.EventNoResults)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.searcher.metrics.emptyResults.WithLabelValues(core.EventNoResultNearby)))
}

func TestBuildResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.searcher.BuildResult(ctx, "o1", "")
	require.NoError(t, err)
	assert.Equal(t, "Food Pantry", res.ServiceName)

	res, err = env.searcher.BuildResult(ctx, "o1", "ES")
	require.NoError(t, err)
	assert.Equal(t, "Despensa de alimentos", res.ServiceName)

	_, err = env.searcher.BuildResult(ctx, "o7", "en")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
