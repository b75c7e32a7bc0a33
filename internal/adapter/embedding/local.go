package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"slices"

	"qualrag/internal/adapter/analyzer"
)

// LocalModelName names the built-in feature hashing model.
const LocalModelName = "hash-bow-v1"

// DefaultDimension is the bucket count used when none is configured.
const DefaultDimension = 1024

// Local is a dependency-free embedding model: stemmed terms are hashed with
// FNV-1a into a fixed number of buckets, weighted 1+ln(tf) and L2-normalised.
// It needs no weights or network, so it is always available.
type Local struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

// NewLocal creates a local hashing embedder.
func NewLocal(dimension int, stemming bool) *Local {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Local{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(stemming),
	}
}

func (e *Local) Embed(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (e *Local) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

func (e *Local) Dimension() int {
	return e.dimension
}

func (e *Local) ModelVersion() string {
	v := fmt.Sprintf("%s/%d", LocalModelName, e.dimension)
	if e.tokenizer.Stemming() {
		v += "/stem"
	}
	return v
}

func (e *Local) vector(text string) []float32 {
	vec := make([]float32, e.dimension)

	counts := make(map[string]int)
	for _, term := range e.tokenizer.Tokenize(text) {
		counts[term]++
	}
	// fixed summation order so colliding buckets add up identically every time
	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	slices.Sort(terms)

	h := fnv.New32a()
	for _, term := range terms {
		h.Reset()
		h.Write([]byte(term))
		bucket := h.Sum32() % uint32(e.dimension)
		vec[bucket] += float32(1 + math.Log(float64(counts[term])))
	}

	normalize(vec)
	return vec
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
