package reindex

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/index"
	"github.com/poiesic/carefind/index/sqlite"
	"github.com/poiesic/carefind/internal/fixture"
	"github.com/poiesic/carefind/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyIndexer fails the first failures Index calls.
type flakyIndexer struct {
	inner *sqlite.Index

	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyIndexer) Index(ctx context.Context, name string, docs ...index.Document) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("database is locked")
	}
	return f.inner.Index(ctx, name, docs...)
}

func (f *flakyIndexer) Delete(ctx context.Context, name string, ids ...core.ID) error {
	return f.inner.Delete(ctx, name, ids...)
}

func (f *flakyIndexer) Clear(ctx context.Context, name string) error {
	return f.inner.Clear(ctx, name)
}

func setupTest(t *testing.T) (*badger.Store, *sqlite.Index) {
	t.Helper()
	ctx := context.Background()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, fixture.Load(ctx, store))

	idx, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return store, idx
}

func repositories(store *badger.Store) Repositories {
	return Repositories{
		Taxonomies:   store.Taxonomies,
		Programs:     store.Programs,
		Sites:        store.Sites,
		Translations: store.Translations,
	}
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.BatchSize = 2
	cfg.ReportInterval = 1
	cfg.RetryDelay = time.Millisecond
	cfg.Languages = []string{"en", "es"}
	return cfg
}

func count(t *testing.T, idx *sqlite.Index, name string) int {
	t.Helper()
	n, err := idx.Count(context.Background(), name)
	require.NoError(t, err)
	return n
}

func TestNewReindexer(t *testing.T) {
	store, idx := setupTest(t)

	_, err := NewReindexer(Repositories{}, idx, nil, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewReindexer(repositories(store), nil, nil, nil)
	assert.ErrorIs(t, err, ErrIndexerRequired)

	r, err := NewReindexer(repositories(store), idx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"en"}, r.languages())
}

func TestReindexer_Run(t *testing.T) {
	store, idx := setupTest(t)
	ctx := context.Background()

	// Left over from an earlier build
	require.NoError(t, idx.Index(ctx, "program_en", index.Document{ID: "gone", Text: "stale"}))

	var progress bytes.Buffer
	r, err := NewReindexer(repositories(store), idx, testConfig(), &progress)
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "es"}, summary.Languages)
	assert.Equal(t, 5, summary.Taxonomies)
	assert.Equal(t, 5, summary.Programs)
	assert.Equal(t, 4, summary.Sites)
	assert.Equal(t, 28, summary.Documents)

	for _, lang := range []string{"en", "es"} {
		assert.Equal(t, 5, count(t, idx, index.Name(index.Programs, lang)), lang)
		assert.Equal(t, 5, count(t, idx, index.Name(index.Taxonomies, lang)), lang)
		assert.Equal(t, 4, count(t, idx, index.Name(index.Sites, lang)), lang)
	}

	t.Run("translations are searchable", func(t *testing.T) {
		hits, err := idx.Search(ctx, "program_es", "despensa", index.Options{})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, core.ID("p1"), hits[0].ID)

		hits, err = idx.Search(ctx, "program_en", "despensa", index.Options{})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("stale documents are gone", func(t *testing.T) {
		hits, err := idx.Search(ctx, "program_en", "stale", index.Options{})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("progress reported", func(t *testing.T) {
		out := progress.String()
		assert.Contains(t, out, "Rebuilding 28 documents in 2 languages (batch size: 2)")
		assert.Contains(t, out, "28/28 documents")
		assert.Contains(t, out, "Rebuild complete")
	})

	t.Run("rerun is idempotent", func(t *testing.T) {
		_, err := r.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, count(t, idx, "program_es"))
	})
}

func TestReindexer_RetriesFailedWrites(t *testing.T) {
	store, idx := setupTest(t)
	flaky := &flakyIndexer{inner: idx, failures: 2}

	r, err := NewReindexer(repositories(store), flaky, testConfig(), nil)
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, count(t, idx, "taxonomy_en"))
}

func TestReindexer_GivesUp(t *testing.T) {
	store, idx := setupTest(t)
	flaky := &flakyIndexer{inner: idx, failures: 1000}

	cfg := testConfig()
	cfg.MaxRetries = 2
	r, err := NewReindexer(repositories(store), flaky, cfg, nil)
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, flaky.calls)
}

func TestReindexer_Canceled(t *testing.T) {
	store, idx := setupTest(t)
	r, err := NewReindexer(repositories(store), idx, testConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
