package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker finds files under a root that match include globs and no exclude glob.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

type FileInfo struct {
	Path    string
	RelPath string
	ModTime int64
	Size    int64
}

// Walk returns matching regular files sorted by relative path.
func (w *Walker) Walk(root string) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsys := os.DirFS(root)

	seen := make(map[string]struct{})
	var files []FileInfo
	for _, pattern := range w.includes {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, rel := range matches {
			if _, dup := seen[rel]; dup || w.shouldExclude(rel) {
				continue
			}
			seen[rel] = struct{}{}

			info, err := fs.Stat(fsys, rel)
			if err != nil {
				return nil, err
			}
			files = append(files, FileInfo{
				Path:    filepath.Join(root, filepath.FromSlash(rel)),
				RelPath: rel,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}
	}

	slices.SortFunc(files, func(a, b FileInfo) int {
		return strings.Compare(a.RelPath, b.RelPath)
	})
	return files, nil
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
