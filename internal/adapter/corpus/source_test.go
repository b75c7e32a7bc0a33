package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualrag/internal/domain"
)

func TestSource_Builtin(t *testing.T) {
	units, err := NewSource().ListUnits(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, units)

	ids := make(map[string]domain.TextUnit, len(units))
	for i, u := range units {
		assert.True(t, u.Category.Valid(), "unit %s has category %q", u.ID, u.Category)
		assert.NotEmpty(t, u.Body, "unit %s", u.ID)
		_, dup := ids[u.ID]
		assert.False(t, dup, "duplicate id %s", u.ID)
		ids[u.ID] = u
		if i > 0 {
			assert.Less(t, units[i-1].ID, u.ID, "units must be sorted by id")
		}
	}

	ger, ok := ids["ger1999"]
	require.True(t, ok)
	assert.Equal(t, domain.CategoryConceptTheory, ger.Category)
	assert.Contains(t, ger.Body, "Gerring 1999 eight criteria for a good concept")

	for _, c := range domain.Categories() {
		found := false
		for _, u := range units {
			if u.Category == c {
				found = true
				break
			}
		}
		assert.True(t, found, "no built-in unit for category %s", c)
	}
}

func TestSource_Deterministic(t *testing.T) {
	ctx := context.Background()
	first, err := NewSource().ListUnits(ctx)
	require.NoError(t, err)
	second, err := NewSource().ListUnits(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, Version(first), Version(second))
}

func TestSource_Dirs(t *testing.T) {
	dir := t.TempDir()
	content := `
units:
  - id: extra_memo
    category: Coding
    body: Analytic memos record the researcher's thinking during coding.
  - id: bad_category
    category: astrology
    body: should be rejected
  - id: no_body
    category: paradigm
    body: "   "
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(content), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("units: [{id: x}]"), 0644))

	units, err := NewSource(WithDirs([]string{dir}, nil, nil)).ListUnits(context.Background())
	require.NoError(t, err)

	byID := make(map[string]domain.TextUnit)
	for _, u := range units {
		byID[u.ID] = u
	}

	memo, ok := byID["extra_memo"]
	require.True(t, ok)
	assert.Equal(t, domain.CategoryCodingMethod, memo.Category)

	assert.NotContains(t, byID, "bad_category")
	assert.NotContains(t, byID, "no_body")
	assert.Contains(t, byID, "ger1999")
}

func TestSource_DuplicateIDIsAnError(t *testing.T) {
	t.Run("clashes with built-in", func(t *testing.T) {
		dir := t.TempDir()
		content := "units:\n  - id: ger1999\n    category: concept_theory\n    body: duplicate of a built-in id\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(content), 0644))

		_, err := NewSource(WithDirs([]string{dir}, nil, nil)).ListUnits(context.Background())
		assert.ErrorIs(t, err, ErrDuplicateID)
	})

	t.Run("across files", func(t *testing.T) {
		dir := t.TempDir()
		content := "units:\n  - id: memo\n    category: coding\n    body: Analytic memos.\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(content), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(content), 0644))

		_, err := NewSource(WithBuiltin(false), WithDirs([]string{dir}, nil, nil)).ListUnits(context.Background())
		require.ErrorIs(t, err, ErrDuplicateID)
		assert.Contains(t, err.Error(), "memo")
	})
}

func TestSource_WithoutBuiltin(t *testing.T) {
	units, err := NewSource(WithBuiltin(false)).ListUnits(context.Background())
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestSource_MissingDir(t *testing.T) {
	_, err := NewSource(WithDirs([]string{filepath.Join(t.TempDir(), "nope")}, nil, nil)).
		ListUnits(context.Background())
	assert.Error(t, err)
}

func TestSource_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("units: [unclosed"), 0644))

	_, err := NewSource(WithBuiltin(false), WithDirs([]string{dir}, nil, nil)).ListUnits(context.Background())
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	base := []domain.TextUnit{
		{ID: "a", Category: domain.CategoryParadigm, Body: "one"},
		{ID: "b", Category: domain.CategoryTradition, Body: "two"},
	}
	v := Version(base)
	assert.Len(t, v, 32)

	changed := []domain.TextUnit{base[0], {ID: "b", Category: domain.CategoryTradition, Body: "two!"}}
	assert.NotEqual(t, v, Version(changed))

	shifted := []domain.TextUnit{
		{ID: "a", Category: domain.CategoryParadigm, Body: "on"},
		{ID: "eb", Category: domain.CategoryTradition, Body: "two"},
	}
	assert.NotEqual(t, v, Version(shifted))
	assert.NotEqual(t, v, Version(nil))
}
