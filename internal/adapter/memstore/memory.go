package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"qualrag/internal/domain"
)

// MemoryBackend keeps one index build in process memory. It satisfies
// port.IndexBackend for the "memory" backend and for tests.
type MemoryBackend struct {
	mu       sync.RWMutex
	manifest *domain.Manifest
	records  []domain.IndexRecord
	readErr  error
	writeErr error
	writes   int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (s *MemoryBackend) Location() string {
	return "memory"
}

func (s *MemoryBackend) Read(ctx context.Context) (domain.Manifest, []domain.IndexRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return domain.Manifest{}, nil, s.readErr
	}
	if s.manifest == nil {
		return domain.Manifest{}, nil, fmt.Errorf("%w: nothing stored in memory", domain.ErrIndexNotFound)
	}
	return *s.manifest, slices.Clone(s.records), nil
}

func (s *MemoryBackend) Write(ctx context.Context, m domain.Manifest, records []domain.IndexRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.manifest = &m
	s.records = slices.Clone(records)
	s.writes++
	return nil
}

func (s *MemoryBackend) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest = nil
	s.records = nil
	return nil
}

// FailWith makes subsequent reads and writes return the given errors.
// Pass nil to clear.
func (s *MemoryBackend) FailWith(readErr, writeErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = readErr
	s.writeErr = writeErr
}

// Writes reports how many builds were stored.
func (s *MemoryBackend) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
