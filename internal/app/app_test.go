package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualrag/config"
	"qualrag/internal/adapter/memstore"
	badgerstore "qualrag/internal/adapter/store/badger"
	"qualrag/internal/adapter/store/bolt"
	"qualrag/internal/domain"
)

func TestNewBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	b, err := NewBackend(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &bolt.Backend{}, b)
	assert.Equal(t, filepath.Join(cfg.DataDir, "index.db"), b.Location())

	cfg.Index.Backend = "badger"
	b, err = NewBackend(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &badgerstore.Backend{}, b)
	assert.Equal(t, filepath.Join(cfg.DataDir, "badger"), b.Location())

	cfg.Index.Backend = "memory"
	b, err = NewBackend(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &memstore.MemoryBackend{}, b)

	cfg.Index.Backend = "sqlite"
	_, err = NewBackend(cfg, nil)
	assert.Error(t, err)
}

func TestNew_BuildsAndReloads(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	ctx := context.Background()

	a, err := New(cfg, nil)
	require.NoError(t, err)
	require.Equal(t, domain.StateReady, a.Engine.EnsureReady(ctx))
	st := a.Engine.Status()
	assert.True(t, st.Persisted)
	assert.Equal(t, 27, st.CorpusSize)

	again, err := New(cfg, nil)
	require.NoError(t, err)
	results, err := again.Engine.Search(ctx, domain.SearchRequest{Query: "what makes a concept good", TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ger1999", results[0].ID)
	assert.True(t, again.Engine.Status().Persisted)
	assert.Equal(t, st.CorpusVersion, again.Engine.Status().CorpusVersion)
}

func TestNew_UnusableModelDegrades(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Embedding.Provider = "openai"
	cfg.Embedding.Model = "text-embedding-3-small"
	cfg.Embedding.APIKeyEnv = "QUALRAG_TEST_MISSING_KEY"
	t.Setenv("QUALRAG_TEST_MISSING_KEY", "")

	a, err := New(cfg, nil)
	require.NoError(t, err)

	results, err := a.Engine.Search(context.Background(), domain.SearchRequest{Query: "Gerring", TopK: 3})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "ger1999", results[0].ID)
	assert.Equal(t, domain.StateDegraded, a.Engine.State())
}
