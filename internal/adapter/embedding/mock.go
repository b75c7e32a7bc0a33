package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync/atomic"
)

// Mock is a test double for port.Embedder. Behaviour can be replaced via
// EmbedFunc; by default vectors are derived deterministically from a hash of the text.
type Mock struct {
	// EmbedFunc is called for every text if set.
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	dimension int
	calls     atomic.Int64
}

// NewMock creates a mock embedder with default deterministic behaviour.
func NewMock(dimension int) *Mock {
	if dimension <= 0 {
		dimension = 8
	}
	return &Mock{dimension: dimension}
}

// Failing returns a mock whose every call fails with err.
func Failing(dimension int, err error) *Mock {
	m := NewMock(dimension)
	m.EmbedFunc = func(context.Context, string) ([]float32, error) {
		return nil, err
	}
	return m
}

func (m *Mock) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	return m.embed(ctx, text)
}

func (m *Mock) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (m *Mock) Dimension() int {
	return m.dimension
}

func (m *Mock) ModelVersion() string {
	return fmt.Sprintf("mock/%d", m.dimension)
}

// Calls returns how many Embed and EmbedBatch calls were made.
func (m *Mock) Calls() int64 {
	return m.calls.Load()
}

func (m *Mock) embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return deterministicVector(text, m.dimension), nil
}

// deterministicVector seeds an LCG with the FNV hash of text.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := range vector {
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000) / 1000.0
	}
	normalize(vector)
	return vector
}
