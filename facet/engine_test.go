package facet

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/i18n"
	"github.com/poiesic/carefind/internal/fixture"
	"github.com/poiesic/carefind/result"
	"github.com/poiesic/carefind/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureResults returns the visible fixture offerings: o1-o6 and o10.
func fixtureResults(t *testing.T) []*result.Result {
	t.Helper()
	ctx := context.Background()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, fixture.Load(ctx, store))

	b, err := result.NewBuilder(result.Repositories{
		Programs:  store.Programs,
		Sites:     store.Sites,
		Agencies:  store.Agencies,
		Offerings: store.Offerings,
	})
	require.NoError(t, err)

	records, err := b.Join(ctx, fixture.SitePrograms())
	require.NoError(t, err)
	results, err := b.Render(ctx, records, "en")
	require.NoError(t, err)
	require.Len(t, results, 7)
	return results
}

func newTestEngine(t *testing.T, now time.Time) *Engine {
	t.Helper()
	e, err := NewEngine(WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return e
}

func names(g *Group) []string {
	var out []string
	for _, it := range g.Items {
		out = append(out, it.Name)
	}
	return out
}

func TestNewEngine_InvalidTimezone(t *testing.T) {
	_, err := NewEngine(WithTimezone("Not/AZone"))
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestCompute_Groups(t *testing.T) {
	results := fixtureResults(t)
	e := newTestEngine(t, honolulu(t, time.Monday, 10, 0))

	s := e.Compute(results, "en", nil)
	require.Len(t, s.Groups, 3)

	lang := s.Group(GroupLanguage)
	require.NotNil(t, lang)
	assert.Equal(t, []string{"English", "Ilocano", "Spanish", "Tagalog"}, names(lang))
	assert.Equal(t, 6, lang.Item("English").Count)
	assert.Equal(t, 2, lang.Item("Ilocano").Count)

	age := s.Group(GroupAge)
	require.NotNil(t, age)
	assert.Equal(t, []string{"18+", "Under 18", "60+"}, names(age))

	cost := s.Group(GroupCost)
	require.NotNil(t, cost)
	assert.Equal(t, []string{"Free", "Monthly fee", "Sliding scale"}, names(cost))
	assert.Equal(t, 4, cost.Item("Free").Count)
}

func TestCompute_CountsBoundedByResults(t *testing.T) {
	results := fixtureResults(t)
	s := newTestEngine(t, honolulu(t, time.Monday, 10, 0)).Compute(results, "en", nil)

	for _, g := range s.Groups {
		for _, it := range g.Items {
			assert.LessOrEqual(t, it.Count, len(results), "%s.%s", g.Name, it.Name)
		}
	}
	// Age and cost hold one value per result
	for _, name := range []string{GroupAge, GroupCost} {
		total := 0
		for _, it := range s.Group(name).Items {
			total += it.Count
		}
		assert.LessOrEqual(t, total, len(results), name)
	}
}

func TestCompute_OpenNow(t *testing.T) {
	results := fixtureResults(t)

	weekday := newTestEngine(t, honolulu(t, time.Monday, 10, 0)).Compute(results, "en", nil)
	assert.True(t, weekday.OpenNow)
	open := weekday.Filter(results, Filters{OpenNow: true})
	assert.Equal(t, []core.ID{"o1", "o2", "o3", "o4", "o5"}, ids(open))

	// Only the 24/7 shelter is open on Saturday night
	saturday := newTestEngine(t, honolulu(t, time.Saturday, 22, 0)).Compute(results, "en", nil)
	assert.Equal(t, []core.ID{"o4", "o5"}, ids(saturday.Filter(results, Filters{OpenNow: true})))

	// Every openNow result is 24/7 or inside today's window
	now := honolulu(t, time.Monday, 10, 0)
	for _, res := range open {
		assert.True(t, IsOpen(res.Raw().Program, now))
	}
}

func TestCompute_ClockInOtherZone(t *testing.T) {
	results := fixtureResults(t)
	// 18:00 UTC on Monday is 08:00 in Honolulu
	now := time.Date(2024, time.January, 15, 18, 0, 0, 0, time.UTC)

	s := newTestEngine(t, now).Compute(results, "en", nil)
	assert.Equal(t, []core.ID{"o1", "o2", "o3", "o4", "o5"}, ids(s.Filter(results, Filters{OpenNow: true})))
}

func TestCompute_TranslatedLabels(t *testing.T) {
	results := fixtureResults(t)
	dict := i18n.Dictionary{
		"English":       "Inglés",
		"Language":      "Idioma",
		"Under":         "Menores de",
		"Free":          "Gratis",
		"Sliding scale": "Escala móvil",
	}

	s := newTestEngine(t, honolulu(t, time.Monday, 10, 0)).Compute(results, "es", dict)

	lang := s.Group(GroupLanguage)
	assert.Equal(t, "Idioma", lang.Label)
	assert.Equal(t, "Inglés", lang.Item("English").Label)
	assert.Equal(t, "Menores de 18", s.Group(GroupAge).Item("Under 18").Label)
	assert.Equal(t, "Gratis", s.Group(GroupCost).Item("Free").Label)
}

func TestCompute_EmptyGroupsOmitted(t *testing.T) {
	results := fixtureResults(t)
	// Only Food Pantry offerings: no age restriction
	s := newTestEngine(t, honolulu(t, time.Monday, 10, 0)).Compute(results[:3], "en", nil)

	assert.Nil(t, s.Group(GroupAge))
	assert.NotNil(t, s.Group(GroupLanguage))
	assert.NotNil(t, s.Group(GroupCost))

	empty := newTestEngine(t, honolulu(t, time.Monday, 10, 0)).Compute(nil, "en", nil)
	assert.False(t, empty.OpenNow)
	assert.Empty(t, empty.Groups)
}

func TestFirstAge(t *testing.T) {
	for in, want := range map[string]int{"18+": 18, "Under 5": 5, "13-17": 13} {
		n, ok := FirstAge(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, n, in)
	}
	_, ok := FirstAge("Families with children")
	assert.False(t, ok)
}

func TestCompute_UnparseableAgesSortLast(t *testing.T) {
	ctx := context.Background()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Agencies.AddAgencies(ctx, &core.Agency{Id: "a", Name: "A", Status: core.StatusActive})
	require.NoError(t, err)
	_, err = store.Sites.AddSites(ctx, &core.Site{Id: "s", Name: "S", Status: core.StatusActive})
	require.NoError(t, err)
	_, err = store.Programs.AddPrograms(ctx,
		&core.Program{Id: "p1", Name: "Teens", AgencyId: "a", AgeRestricted: "Yes", AgeMinimum: 13, AgeMaximum: 17},
		&core.Program{Id: "p2", Name: "Families", AgencyId: "a", AgeRestricted: "Yes", AgeOther: "Families with children"},
		&core.Program{Id: "p3", Name: "Toddlers", AgencyId: "a", AgeRestricted: "Yes", AgeMaximum: 4},
	)
	require.NoError(t, err)
	offerings := []*core.SiteProgram{
		{Id: "o1", SiteId: "s", ProgramId: "p1"},
		{Id: "o2", SiteId: "s", ProgramId: "p2"},
		{Id: "o3", SiteId: "s", ProgramId: "p3"},
	}
	_, err = store.Offerings.AddSitePrograms(ctx, offerings...)
	require.NoError(t, err)

	b, err := result.NewBuilder(result.Repositories{
		Programs: store.Programs, Sites: store.Sites, Agencies: store.Agencies, Offerings: store.Offerings,
	})
	require.NoError(t, err)
	records, err := b.Join(ctx, offerings)
	require.NoError(t, err)
	results, err := b.Render(ctx, records, "en")
	require.NoError(t, err)

	s := newTestEngine(t, honolulu(t, time.Monday, 10, 0)).Compute(results, "en", nil)
	assert.Equal(t, []string{"Under 5", "13-17", "Families with children"}, names(s.Group(GroupAge)))
}
