package store

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"qualrag/internal/adapter/memstore"
	"qualrag/internal/domain"
	"qualrag/internal/port"
)

// VectorIndex keeps the index records in an immutable in-memory snapshot and
// delegates durability to an IndexBackend. Writers build a new snapshot and
// swap it in, so queries never observe a partial batch and never take a lock.
type VectorIndex struct {
	backend port.IndexBackend
	writeMu sync.Mutex
	current atomic.Pointer[snapshot]
	logger  *slog.Logger
}

type snapshot struct {
	records   []domain.IndexRecord // sorted by id
	norms     []float64
	dimension int
}

var emptySnapshot = &snapshot{}

// Option configures a VectorIndex.
type Option func(*VectorIndex)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *VectorIndex) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewVectorIndex creates an empty index persisted through backend.
func NewVectorIndex(backend port.IndexBackend, opts ...Option) *VectorIndex {
	if backend == nil {
		backend = memstore.NewMemoryBackend()
	}
	v := &VectorIndex{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With("component", "vector-index")
	v.current.Store(emptySnapshot)
	return v
}

// UpsertBatch validates the whole batch before publishing any of it.
func (v *VectorIndex) UpsertBatch(records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	old := v.current.Load()
	dim := old.dimension
	if len(old.records) == 0 {
		dim = len(records[0].Vector)
	}
	if dim == 0 {
		return fmt.Errorf("%w: empty vector for %s", domain.ErrDimensionMismatch, records[0].ID)
	}

	merged := make(map[string]domain.IndexRecord, len(old.records)+len(records))
	for _, r := range old.records {
		merged[r.ID] = r
	}
	inBatch := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("index record without id")
		}
		if _, dup := inBatch[r.ID]; dup {
			return fmt.Errorf("duplicate id %q in batch", r.ID)
		}
		inBatch[r.ID] = struct{}{}
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: %s has %d, index has %d", domain.ErrDimensionMismatch, r.ID, len(r.Vector), dim)
		}
		merged[r.ID] = r
	}

	all := make([]domain.IndexRecord, 0, len(merged))
	for _, r := range merged {
		all = append(all, r)
	}
	v.current.Store(newSnapshot(all, dim))
	return nil
}

// QueryNearest scores every record against vector by cosine similarity.
func (v *VectorIndex) QueryNearest(vector []float32, k int) ([]domain.ScoredRecord, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	snap := v.current.Load()
	if len(snap.records) == 0 {
		return nil, nil
	}
	if len(vector) != snap.dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", domain.ErrDimensionMismatch, len(vector), snap.dimension)
	}

	qnorm := norm(vector)
	scored := make([]domain.ScoredRecord, len(snap.records))
	for i, r := range snap.records {
		scored[i] = domain.ScoredRecord{
			Record: r,
			Score:  cosine(vector, r.Vector, qnorm, snap.norms[i]),
		}
	}
	SortScored(scored)

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Load replaces the in-memory records with the persisted build for want.
// It reports domain.ErrIndexNotFound, ErrVersionMismatch or ErrCorruptIndex when
// a rebuild is needed and ErrStorageUnavailable when the storage itself failed.
func (v *VectorIndex) Load(ctx context.Context, want domain.Manifest) error {
	m, records, err := v.backend.Read(ctx)
	if err != nil {
		return err
	}
	if err := CheckManifest(m, want); err != nil {
		return err
	}
	if err := validateRecords(m, records); err != nil {
		return err
	}

	v.writeMu.Lock()
	v.current.Store(newSnapshot(records, m.Dimension))
	v.writeMu.Unlock()

	v.logger.Info("index loaded", "records", len(records), "location", v.backend.Location(), "build_id", m.BuildID)
	return nil
}

// Persist writes the current snapshot under m; Count and Dimension are filled in.
func (v *VectorIndex) Persist(ctx context.Context, m domain.Manifest) error {
	snap := v.current.Load()
	m.Count = len(snap.records)
	m.Dimension = snap.dimension
	if err := v.backend.Write(ctx, m, snap.records); err != nil {
		return err
	}
	v.logger.Info("index persisted", "records", m.Count, "location", v.backend.Location())
	return nil
}

// Reset drops the durable copy. The in-memory snapshot is left alone.
func (v *VectorIndex) Reset() error {
	return v.backend.Reset()
}

func (v *VectorIndex) Len() int {
	return len(v.current.Load().records)
}

func (v *VectorIndex) Dimension() int {
	return v.current.Load().dimension
}

// Location describes where the index is persisted.
func (v *VectorIndex) Location() string {
	return v.backend.Location()
}

// SortScored orders by descending score, ties by ascending id.
func SortScored(scored []domain.ScoredRecord) {
	slices.SortFunc(scored, func(a, b domain.ScoredRecord) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return strings.Compare(a.Record.ID, b.Record.ID)
	})
}

func newSnapshot(records []domain.IndexRecord, dim int) *snapshot {
	slices.SortFunc(records, func(a, b domain.IndexRecord) int {
		return strings.Compare(a.ID, b.ID)
	})
	norms := make([]float64, len(records))
	for i, r := range records {
		norms[i] = norm(r.Vector)
	}
	return &snapshot{records: records, norms: norms, dimension: dim}
}

func validateRecords(m domain.Manifest, records []domain.IndexRecord) error {
	if len(records) != m.Count {
		return fmt.Errorf("%w: manifest lists %d records, found %d", domain.ErrCorruptIndex, m.Count, len(records))
	}
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record without id", domain.ErrCorruptIndex)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", domain.ErrCorruptIndex, r.ID)
		}
		seen[r.ID] = struct{}{}
		if len(r.Vector) != m.Dimension {
			return fmt.Errorf("%w: %s has dimension %d, manifest says %d", domain.ErrCorruptIndex, r.ID, len(r.Vector), m.Dimension)
		}
		if !r.Category.Valid() {
			return fmt.Errorf("%w: %s has category %q", domain.ErrCorruptIndex, r.ID, r.Category)
		}
	}
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine uses precomputed norms; a zero vector scores 0 against everything.
func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dotProduct float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
	}
	return dotProduct / (normA * normB)
}
