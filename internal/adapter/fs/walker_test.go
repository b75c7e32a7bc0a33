package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("units: []\n"), 0644))
}

func TestWalker_Walk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.yaml")
	writeFile(t, root, "a.yml")
	writeFile(t, root, "nested/c.yaml")
	writeFile(t, root, "drafts/d.yaml")
	writeFile(t, root, "notes.txt")

	w := NewWalker([]string{"**/*.yaml", "**/*.yml"}, []string{"drafts/**"})
	files, err := w.Walk(root)
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelPath)
		assert.True(t, filepath.IsAbs(f.Path))
	}
	assert.Equal(t, []string{"a.yml", "b.yaml", "nested/c.yaml"}, rels)
}

func TestWalker_OverlappingIncludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "x.yaml")

	w := NewWalker([]string{"*.yaml", "**/*.yaml"}, nil)
	files, err := w.Walk(root)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
