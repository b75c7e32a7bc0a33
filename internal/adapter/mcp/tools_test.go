package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualrag/internal/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked passages", func(t *testing.T) {
		engine := &mockKnowledge{
			results: []domain.QueryResult{
				{ID: "ger1999", Body: "Gerring 1999 eight criteria for a good concept", Category: domain.CategoryConceptTheory, Score: 0.36},
				{ID: "coding_open_coding", Body: "Open coding", Category: domain.CategoryCodingMethod, Score: 0.25},
			},
		}
		server, err := NewServer(engine)
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "what makes a concept good", TopK: 2})
		require.NoError(t, err)
		require.Len(t, output.Results, 2)
		assert.Equal(t, "ger1999", output.Results[0].ID)
		assert.Equal(t, "concept_theory", output.Results[0].Category)
		assert.Equal(t, 0.36, output.Results[0].Score)
		assert.Equal(t, 2, engine.lastReq.TopK)
		assert.Empty(t, engine.lastReq.Category)
	})

	t.Run("default top_k", func(t *testing.T) {
		engine := &mockKnowledge{}
		server, err := NewServer(engine, WithDefaultTopK(3))
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "coding"})
		require.NoError(t, err)
		assert.Equal(t, 3, engine.lastReq.TopK)
		assert.NotNil(t, output.Results)
		assert.Empty(t, output.Results)
	})

	t.Run("category aliases are normalised", func(t *testing.T) {
		engine := &mockKnowledge{}
		server, err := NewServer(engine)
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "coding", Category: "Coding"})
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryCodingMethod, engine.lastReq.Category)
	})

	t.Run("unknown category is an invalid query", func(t *testing.T) {
		engine := &mockKnowledge{}
		server, err := NewServer(engine)
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "coding", Category: "astrology"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		assert.ErrorIs(t, err, domain.ErrUnknownCategory)
		assert.Zero(t, engine.calls)
	})

	t.Run("engine errors are returned", func(t *testing.T) {
		engine := &mockKnowledge{err: errors.Join(domain.ErrInvalidQuery, errors.New("query is empty"))}
		server, err := NewServer(engine)
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "  "})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("output serialises with the documented field names", func(t *testing.T) {
		engine := &mockKnowledge{results: []domain.QueryResult{{ID: "a", Body: "b", Category: domain.CategoryParadigm, Score: 0.5}}}
		server, err := NewServer(engine)
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "x"})
		require.NoError(t, err)
		data, err := json.Marshal(output)
		require.NoError(t, err)
		assert.JSONEq(t, `{"results":[{"id":"a","body":"b","category":"paradigm","score":0.5}]}`, string(data))
	})
}

func TestServer_handleStatus(t *testing.T) {
	engine := &mockKnowledge{status: domain.Status{
		State:        domain.StateDegraded,
		CorpusSize:   27,
		ModelVersion: "openai/text-embedding-3-small",
		Builds:       1,
		Cause:        "embed corpus: embedding model unavailable",
	}}
	server, err := NewServer(engine)
	require.NoError(t, err)

	_, output, err := server.handleStatus(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.Equal(t, "degraded", output.State)
	assert.Equal(t, 27, output.CorpusSize)
	assert.EqualValues(t, 1, output.Builds)
	assert.False(t, output.Persisted)
	assert.Contains(t, output.Cause, "unavailable")
}
