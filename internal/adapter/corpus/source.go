// Package corpus materialises the knowledge base into text units.
package corpus

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"qualrag/internal/adapter/fs"
	"qualrag/internal/domain"
)

var defaultIncludes = []string{"**/*.yaml", "**/*.yml"}

//go:embed knowledge.yaml
var builtinKnowledge []byte

// unitFile is the on-disk layout shared by the built-in knowledge base and operator files.
type unitFile struct {
	Units []rawUnit `yaml:"units"`
}

type rawUnit struct {
	ID        string `yaml:"id"`
	Category  string `yaml:"category"`
	Title     string `yaml:"title"`
	Body      string `yaml:"body"`
	SourceRef string `yaml:"source_ref"`
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBuiltin toggles the embedded knowledge base. Default is true.
func WithBuiltin(enabled bool) Option {
	return func(s *Source) {
		s.builtin = enabled
	}
}

// WithDirs adds directories of operator corpus files matched by include/exclude globs.
func WithDirs(dirs, includes, excludes []string) Option {
	return func(s *Source) {
		if len(includes) == 0 {
			includes = defaultIncludes
		}
		s.dirs = append(s.dirs, dirs...)
		s.walker = fs.NewWalker(includes, excludes)
	}
}

// Source is the document source: the embedded knowledge base plus any operator files.
// Units with an unknown category, an empty id or body, or an id already seen are rejected.
type Source struct {
	builtin bool
	dirs    []string
	walker  *fs.Walker
	logger  *slog.Logger
}

// NewSource creates a document source.
func NewSource(opts ...Option) *Source {
	s := &Source{
		builtin: true,
		walker:  fs.NewWalker(defaultIncludes, nil),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "corpus")
	return s
}

// ListUnits reads every configured input and returns the units sorted by id.
func (s *Source) ListUnits(ctx context.Context) ([]domain.TextUnit, error) {
	c := collector{seen: make(map[string]string), logger: s.logger}

	if s.builtin {
		if err := c.add("builtin", builtinKnowledge); err != nil {
			return nil, err
		}
	}

	for _, dir := range s.dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("corpus dir %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("corpus dir %s: not a directory", dir)
		}
		files, err := s.walker.Walk(dir)
		if err != nil {
			return nil, fmt.Errorf("walk corpus dir %s: %w", dir, err)
		}
		for _, f := range files {
			data, err := os.ReadFile(f.Path)
			if err != nil {
				return nil, fmt.Errorf("read corpus file: %w", err)
			}
			if err := c.add(f.Path, data); err != nil {
				return nil, err
			}
		}
	}

	slices.SortFunc(c.units, func(a, b domain.TextUnit) int {
		return strings.Compare(a.ID, b.ID)
	})
	if c.rejected > 0 {
		s.logger.Warn("rejected corpus units", "count", c.rejected)
	}
	s.logger.Debug("corpus listed", "units", len(c.units))
	return c.units, nil
}

type collector struct {
	units    []domain.TextUnit
	seen     map[string]string
	rejected int
	logger   *slog.Logger
}

func (c *collector) add(origin string, data []byte) error {
	var file unitFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse corpus file %s: %w", origin, err)
	}
	for _, raw := range file.Units {
		unit, err := normalize(raw)
		if err != nil {
			c.rejected++
			c.logger.Warn("rejecting corpus unit", "origin", origin, "id", raw.ID, "err", err)
			continue
		}
		if first, dup := c.seen[unit.ID]; dup {
			return fmt.Errorf("%w: %s in %s, first seen in %s", ErrDuplicateID, unit.ID, origin, first)
		}
		c.seen[unit.ID] = origin
		c.units = append(c.units, unit)
	}
	return nil
}

func normalize(raw rawUnit) (domain.TextUnit, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return domain.TextUnit{}, fmt.Errorf("missing id")
	}
	body := strings.TrimSpace(raw.Body)
	if body == "" {
		return domain.TextUnit{}, fmt.Errorf("empty body")
	}
	category, err := domain.ParseCategory(raw.Category)
	if err != nil {
		return domain.TextUnit{}, err
	}
	return domain.TextUnit{
		ID:        id,
		Category:  category,
		Title:     strings.TrimSpace(raw.Title),
		Body:      body,
		SourceRef: strings.TrimSpace(raw.SourceRef),
	}, nil
}
