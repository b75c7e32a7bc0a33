package port

import (
	"context"

	"qualrag/internal/domain"
)

// VectorIndex holds index records and answers nearest-neighbour queries.
type VectorIndex interface {
	// UpsertBatch applies all records or none; readers see either the old or the new set.
	UpsertBatch(records []domain.IndexRecord) error
	// QueryNearest returns up to k records ordered by descending score, ties by ascending id.
	QueryNearest(vector []float32, k int) ([]domain.ScoredRecord, error)
	// Load replaces the in-memory records with the persisted build matching want.
	Load(ctx context.Context, want domain.Manifest) error
	// Persist writes the current records under m.
	Persist(ctx context.Context, m domain.Manifest) error
	Len() int
	Dimension() int
}

// IndexBackend is durable storage for one index build.
type IndexBackend interface {
	// Read returns the stored manifest and records.
	// Missing storage yields domain.ErrIndexNotFound.
	Read(ctx context.Context) (domain.Manifest, []domain.IndexRecord, error)
	// Write replaces whatever is stored with m and records.
	Write(ctx context.Context, m domain.Manifest, records []domain.IndexRecord) error
	// Reset removes the stored build.
	Reset() error
	Location() string
}
