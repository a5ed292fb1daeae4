package taxonomy

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *badger.Store {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	_, err = store.Taxonomies.AddTaxonomies(ctx,
		&core.Taxonomy{Id: "t1", Code: "BD-1800", Name: "Emergency Food", Status: core.StatusActive},
		&core.Taxonomy{Id: "t2", Code: "BH-1800", Name: "Emergency Shelter", Status: core.StatusActive},
		&core.Taxonomy{Id: "t3", Code: "BD-1900", Name: "Old Category", Status: core.StatusInactive},
	)
	require.NoError(t, err)
	require.NoError(t, store.Translations.AddTranslations(ctx,
		&core.Translation{Kind: core.KindTaxonomy, EntityId: "t1", Language: "es",
			Fields: map[string]string{core.FieldName: "Comida de emergencia"}}))
	return store
}

func TestNewIndex_RequiresRepository(t *testing.T) {
	_, err := NewIndex(nil)
	assert.ErrorIs(t, err, ErrTaxonomyRepositoryRequired)

	store := setup(t)
	_, err = NewIndex(store.Taxonomies, WithRefreshInterval(0))
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestByCode(t *testing.T) {
	store := setup(t)
	idx, err := NewIndex(store.Taxonomies)
	require.NoError(t, err)
	ctx := context.Background()

	got, ok, err := idx.ByCode(ctx, "", "BD-1800")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.ID("t1"), got.Id)

	_, ok, err = idx.ByCode(ctx, "", "BD-1900")
	require.NoError(t, err)
	assert.False(t, ok, "inactive taxonomies are not indexed")

	assert.Equal(t, []string{"en"}, idx.Languages())
	assert.Equal(t, DefaultRefreshInterval, idx.StalenessBound())
}

func TestByName_Translated(t *testing.T) {
	store := setup(t)
	idx, err := NewIndex(store.Taxonomies, WithTranslations(store.Translations))
	require.NoError(t, err)
	ctx := context.Background()

	got, ok, err := idx.ByName(ctx, "es", "Comida de emergencia")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "BD-1800", got.Code)

	// Untranslated names fall back to the default name
	_, ok, err = idx.ByName(ctx, "es", "Emergency Shelter")
	require.NoError(t, err)
	assert.True(t, ok)

	// The stored record keeps its original name
	raw, err := store.Taxonomies.GetTaxonomy(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Emergency Food", raw.Name)

	names, err := idx.Names(ctx, "es")
	require.NoError(t, err)
	assert.Equal(t, []string{"Comida de emergencia", "Emergency Shelter"}, names)
}

func TestRefreshPicksUpChanges(t *testing.T) {
	store := setup(t)
	idx, err := NewIndex(store.Taxonomies)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := idx.ByCode(ctx, "en", "BM-6500")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Taxonomies.AddTaxonomies(ctx,
		&core.Taxonomy{Id: "t4", Code: "BM-6500", Name: "Clothing", Status: core.StatusActive})
	require.NoError(t, err)

	_, ok, _ = idx.ByCode(ctx, "en", "BM-6500")
	assert.False(t, ok, "snapshot is stale until refreshed")

	require.NoError(t, idx.Refresh(ctx))
	_, ok, err = idx.ByCode(ctx, "en", "BM-6500")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRun(t *testing.T) {
	store := setup(t)
	idx, err := NewIndex(store.Taxonomies, WithRefreshInterval(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		idx.Run(ctx)
		close(done)
	}()

	_, err = store.Taxonomies.AddTaxonomies(context.Background(),
		&core.Taxonomy{Id: "t4", Code: "BM-6500", Name: "Clothing", Status: core.StatusActive})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok, _ := idx.ByCode(context.Background(), "en", "BM-6500")
		return ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
