package retriever

import (
	"context"
	"fmt"

	"qualrag/internal/domain"
	"qualrag/internal/port"
)

// SemanticRetriever embeds the query and ranks the whole index by cosine
// similarity.
type SemanticRetriever struct {
	index    port.VectorIndex
	embedder port.Embedder
}

func NewSemanticRetriever(index port.VectorIndex, embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{
		index:    index,
		embedder: embedder,
	}
}

func (r *SemanticRetriever) Search(ctx context.Context, query string) ([]domain.QueryResult, error) {
	if r.index == nil || r.embedder == nil {
		return nil, fmt.Errorf("semantic search not available: %w", domain.ErrModelUnavailable)
	}
	n := r.index.Len()
	if n == 0 {
		return nil, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored, err := r.index.QueryNearest(vec, n)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]domain.QueryResult, 0, len(scored))
	for _, s := range scored {
		results = append(results, domain.QueryResult{
			ID:       s.Record.ID,
			Body:     s.Record.Body,
			Category: s.Record.Category,
			Score:    s.Score,
		})
	}
	return results, nil
}
