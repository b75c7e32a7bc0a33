package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualrag/internal/domain"
)

func req(q string, k int, c domain.Category) domain.SearchRequest {
	return domain.SearchRequest{Query: q, TopK: k, Category: c}
}

func results(ids ...string) []domain.QueryResult {
	out := make([]domain.QueryResult, len(ids))
	for i, id := range ids {
		out[i] = domain.QueryResult{ID: id, Score: 1 - float64(i)/10}
	}
	return out
}

func TestQueryCache_KeyIncludesTopKAndCategory(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put(req("concept", 1, ""), results("a"))
	c.Put(req("concept", 2, ""), results("a", "b"))
	c.Put(req("concept", 1, domain.CategoryParadigm), results("p"))

	got, ok := c.Get(req("concept", 1, ""))
	require.True(t, ok)
	assert.Len(t, got, 1)

	got, ok = c.Get(req("  concept ", 2, ""))
	require.True(t, ok)
	assert.Len(t, got, 2)

	got, ok = c.Get(req("concept", 1, domain.CategoryParadigm))
	require.True(t, ok)
	assert.Equal(t, "p", got[0].ID)

	_, ok = c.Get(req("concept", 3, ""))
	assert.False(t, ok)
}

func TestQueryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put(req("a", 1, ""), results("a"))
	c.Put(req("b", 1, ""), results("b"))

	_, ok := c.Get(req("a", 1, ""))
	require.True(t, ok)

	c.Put(req("c", 1, ""), results("c"))
	assert.Equal(t, 2, c.Size())

	_, ok = c.Get(req("b", 1, ""))
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get(req("a", 1, ""))
	assert.True(t, ok)
}

func TestQueryCache_TTL(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put(req("a", 1, ""), results("a"))
	now = now.Add(30 * time.Second)
	_, ok := c.Get(req("a", 1, ""))
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(req("a", 1, ""))
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestQueryCache_Invalidate(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put(req("a", 1, ""), results("a"))
	c.Invalidate()

	_, ok := c.Get(req("a", 1, ""))
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestQueryCache_ReturnsCopies(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put(req("a", 2, ""), results("a", "b"))

	got, _ := c.Get(req("a", 2, ""))
	got[0].ID = "mutated"

	again, _ := c.Get(req("a", 2, ""))
	assert.Equal(t, "a", again[0].ID)
}
