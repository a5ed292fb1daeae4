package sqlite

import (
	"context"
	"testing"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func hitIDs(hits []index.Hit) []core.ID {
	ids := make([]core.ID, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

func seedPrograms(t *testing.T, idx *Index) string {
	t.Helper()
	name := index.Name(index.Programs, "en")
	err := idx.Index(context.Background(), name,
		index.ProgramDocument(&core.Program{Id: "p1", Name: "Food Pantry", Description: "Groceries for families in need"}, nil),
		index.ProgramDocument(&core.Program{Id: "p2", Name: "Emergency Shelter", Description: "Beds for the night"}, nil),
		index.ProgramDocument(&core.Program{Id: "p3", Name: "Meals on Wheels", Description: "Hot food delivered", Keywords: "kupuna seniors"}, nil),
	)
	require.NoError(t, err)
	return name
}

func TestSearch_StemmedMatch(t *testing.T) {
	idx := newTestIndex(t)
	name := seedPrograms(t, idx)

	hits, err := idx.Search(context.Background(), name, "pantries", index.Options{})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"p1"}, hitIDs(hits))
	assert.Equal(t, float64(-1), hits[0].Distance)
	assert.Equal(t, "Food Pantry", hits[0].Fields[index.AttrName])
}

func TestSearch_PrefixAndKeywords(t *testing.T) {
	idx := newTestIndex(t)
	name := seedPrograms(t, idx)

	hits, err := idx.Search(context.Background(), name, "kupu", index.Options{})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"p3"}, hitIDs(hits))
}

func TestSearch_FallsBackToAnyTerm(t *testing.T) {
	idx := newTestIndex(t)
	name := seedPrograms(t, idx)

	hits, err := idx.Search(context.Background(), name, "shelter groceries", index.Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.ID{"p1", "p2"}, hitIDs(hits))
}

func TestSearch_StopWordsOnlyMatchesEverything(t *testing.T) {
	idx := newTestIndex(t)
	name := seedPrograms(t, idx)

	hits, err := idx.Search(context.Background(), name, "the", index.Options{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"p1", "p2"}, hitIDs(hits))
}

func TestSearch_AttributesToRetrieve(t *testing.T) {
	idx := newTestIndex(t)
	name := seedPrograms(t, idx)

	hits, err := idx.Search(context.Background(), name, "food", index.Options{AttributesToRetrieve: []string{index.AttrID}})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.Equal(t, map[string]string{index.AttrID: string(h.ID)}, h.Fields)
	}
}

func TestIndex_ReplaceAndDelete(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	name := seedPrograms(t, idx)

	err := idx.Index(ctx, name, index.ProgramDocument(&core.Program{Id: "p1", Name: "Clothing Closet"}, nil))
	require.NoError(t, err)

	hits, err := idx.Search(ctx, name, "pantry", index.Options{})
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(ctx, name, "clothing", index.Options{})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"p1"}, hitIDs(hits))

	require.NoError(t, idx.Delete(ctx, name, "p1", "unknown"))
	n, err := idx.Count(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, idx.Clear(ctx, name))
	n, err = idx.Count(ctx, name)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_LanguagesAreSeparate(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	program := &core.Program{Id: "p1", Name: "Food Pantry"}
	spanish := &core.Translation{Kind: core.KindProgram, EntityId: "p1", Language: "es",
		Fields: map[string]string{core.FieldName: "Despensa de alimentos"}}

	require.NoError(t, idx.Index(ctx, index.Name(index.Programs, "en"), index.ProgramDocument(program, nil)))
	require.NoError(t, idx.Index(ctx, index.Name(index.Programs, "es"), index.ProgramDocument(program, spanish)))

	hits, err := idx.Search(ctx, index.Name(index.Programs, "es"), "alimentos", index.Options{})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"p1"}, hitIDs(hits))

	hits, err = idx.Search(ctx, index.Name(index.Programs, "en"), "alimentos", index.Options{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func seedSites(t *testing.T, idx *Index) string {
	t.Helper()
	name := index.Name(index.Sites, "en")
	err := idx.Index(context.Background(), name,
		// Honolulu downtown
		index.SiteDocument(&core.Site{Id: "downtown", Name: "Downtown", ZipCode: "96813", HasLocation: true, Latitude: 21.3099, Longitude: -157.8581}),
		// Kaneohe, roughly 15km away
		index.SiteDocument(&core.Site{Id: "kaneohe", Name: "Kaneohe", ZipCode: "96744", HasLocation: true, Latitude: 21.4022, Longitude: -157.7394}),
		// Hilo, on another island
		index.SiteDocument(&core.Site{Id: "hilo", Name: "Hilo", ZipCode: "96720", HasLocation: true, Latitude: 19.7074, Longitude: -155.0885}),
		index.SiteDocument(&core.Site{Id: "online", Name: "Online", ZipCode: "96813"}),
	)
	require.NoError(t, err)
	return name
}

func TestSearch_GeoSort(t *testing.T) {
	idx := newTestIndex(t)
	name := seedSites(t, idx)

	hits, err := idx.Search(context.Background(), name, "", index.Options{
		Limit: 10,
		Sort:  []string{index.GeoPointSort(21.3069, -157.8583)},
	})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"downtown", "kaneohe", "hilo", "online"}, hitIDs(hits))
	assert.Less(t, hits[0].Distance, 1000.0)
	assert.Equal(t, float64(-1), hits[3].Distance)
}

func TestSearch_GeoRadius(t *testing.T) {
	idx := newTestIndex(t)
	name := seedSites(t, idx)

	hits, err := idx.Search(context.Background(), name, "", index.Options{
		Limit:  10,
		Sort:   []string{index.GeoPointSort(21.3069, -157.8583)},
		Filter: []string{index.GeoRadiusFilter(21.3069, -157.8583, 25*index.MetersPerMile)},
	})
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"downtown", "kaneohe"}, hitIDs(hits))
	for _, h := range hits {
		assert.LessOrEqual(t, h.Distance, 25*index.MetersPerMile)
	}
}

func TestSearch_GeoRadiusAcrossAntimeridian(t *testing.T) {
	idx := newTestIndex(t)
	name := index.Name(index.Sites, "en")
	err := idx.Index(context.Background(), name,
		index.SiteDocument(&core.Site{Id: "west", Name: "West", HasLocation: true, Latitude: -17.0, Longitude: 179.8}),
		index.SiteDocument(&core.Site{Id: "east", Name: "East", HasLocation: true, Latitude: -17.0, Longitude: -179.9}),
		index.SiteDocument(&core.Site{Id: "far", Name: "Far", HasLocation: true, Latitude: -17.0, Longitude: -178.0}),
	)
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), name, "", index.Options{
		Limit:  10,
		Sort:   []string{index.GeoPointSort(-17.0, 179.9)},
		Filter: []string{index.GeoRadiusFilter(-17.0, 179.9, 25*index.MetersPerMile)},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.ID{"west", "east"}, hitIDs(hits))
}

func TestSearch_EqualsFilter(t *testing.T) {
	idx := newTestIndex(t)
	name := seedSites(t, idx)

	hits, err := idx.Search(context.Background(), name, "", index.Options{
		Limit:  10,
		Filter: []string{index.EqualsFilter(index.AttrZipCode, "96813")},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.ID{"downtown", "online"}, hitIDs(hits))
}

func TestSearch_InvalidExpressions(t *testing.T) {
	idx := newTestIndex(t)
	name := seedSites(t, idx)

	_, err := idx.Search(context.Background(), name, "", index.Options{Sort: []string{"name:asc"}})
	assert.ErrorIs(t, err, index.ErrInvalidSort)

	_, err = idx.Search(context.Background(), name, "", index.Options{Filter: []string{"zipCode > 5"}})
	assert.ErrorIs(t, err, index.ErrInvalidFilter)
}

func TestClosedIndex(t *testing.T) {
	idx, err := OpenMemory()
	require.NoError(t, err)
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	_, err = idx.Search(context.Background(), "program_en", "food", index.Options{})
	assert.ErrorIs(t, err, index.ErrIndexClosed)
}

func TestOpen_File(t *testing.T) {
	path := t.TempDir() + "/index.db"
	idx, err := Open(path)
	require.NoError(t, err)
	seedPrograms(t, idx)
	require.NoError(t, idx.Optimize(context.Background()))
	require.NoError(t, idx.Close())

	idx, err = Open(path)
	require.NoError(t, err)
	defer idx.Close()
	n, err := idx.Count(context.Background(), index.Name(index.Programs, "en"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
