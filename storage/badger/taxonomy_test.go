package badger

import (
	"context"
	"testing"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTaxonomies(t *testing.T, repo *TaxonomyRepository) {
	t.Helper()
	_, err := repo.AddTaxonomies(context.Background(),
		&core.Taxonomy{Id: "t1", Code: "BD-1800", Name: "Emergency Food", Status: core.StatusActive},
		&core.Taxonomy{Id: "t2", Code: "BD-1800.2000", Name: "Food Pantries", Status: core.StatusActive},
		&core.Taxonomy{Id: "t3", Code: "BD-1800.1900", Name: "Food Lines", Status: core.StatusInactive},
		&core.Taxonomy{Id: "t4", Code: "BH-1800", Name: "Emergency Shelter", Status: core.StatusActive},
	)
	require.NoError(t, err)
}

func TestTaxonomyRepository_GetTaxonomy(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedTaxonomies(t, store.Taxonomies)

	got, err := store.Taxonomies.GetTaxonomy(ctx, "t3")
	require.NoError(t, err)
	assert.Equal(t, "Food Lines", got.Name)

	_, err = store.Taxonomies.GetTaxonomy(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTaxonomyRepository_GetTaxonomiesKeepsOrder(t *testing.T) {
	store := newTestStore(t)
	seedTaxonomies(t, store.Taxonomies)

	got, err := store.Taxonomies.GetTaxonomies(context.Background(), "t4", "missing", "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.ID("t4"), got[0].Id)
	assert.Equal(t, core.ID("t1"), got[1].Id)
}

func TestTaxonomyRepository_GetActiveTaxonomies(t *testing.T) {
	store := newTestStore(t)
	seedTaxonomies(t, store.Taxonomies)

	got, err := store.Taxonomies.GetActiveTaxonomies(context.Background())
	require.NoError(t, err)
	ids := make([]core.ID, 0, len(got))
	for _, tx := range got {
		ids = append(ids, tx.Id)
	}
	assert.Equal(t, []core.ID{"t1", "t2", "t4"}, ids)
}

func TestTaxonomyRepository_FindByCode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedTaxonomies(t, store.Taxonomies)

	t.Run("active", func(t *testing.T) {
		got, err := store.Taxonomies.FindTaxonomyByCode(ctx, "BD-1800.2000")
		require.NoError(t, err)
		assert.Equal(t, core.ID("t2"), got.Id)
	})

	t.Run("inactive is hidden", func(t *testing.T) {
		got, err := store.Taxonomies.FindTaxonomyByCode(ctx, "BD-1800.1900")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.Nil(t, got)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := store.Taxonomies.FindTaxonomyByCode(ctx, "ZZ-0000")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestTaxonomyRepository_FindByCodePrefix(t *testing.T) {
	store := newTestStore(t)
	seedTaxonomies(t, store.Taxonomies)

	got, err := store.Taxonomies.FindTaxonomiesByCodePrefix(context.Background(), "BD-1800")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BD-1800", got[0].Code)
	assert.Equal(t, "BD-1800.2000", got[1].Code)
}

func TestTaxonomyRepository_CodeChangeMovesIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedTaxonomies(t, store.Taxonomies)

	_, err := store.Taxonomies.AddTaxonomies(ctx,
		&core.Taxonomy{Id: "t1", Code: "BD-1700", Name: "Emergency Food", Status: core.StatusActive})
	require.NoError(t, err)

	_, err = store.Taxonomies.FindTaxonomyByCode(ctx, "BD-1800")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := store.Taxonomies.FindTaxonomyByCode(ctx, "BD-1700")
	require.NoError(t, err)
	assert.Equal(t, core.ID("t1"), got.Id)
}

func TestTaxonomyRepository_RejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Taxonomies.AddTaxonomies(context.Background(), &core.Taxonomy{Id: "t1", Name: "No code"})
	assert.ErrorIs(t, err, core.ErrInvalidTaxonomy)
}
