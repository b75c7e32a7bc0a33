package port

import (
	"context"

	"qualrag/internal/domain"
)

// Retriever scores the corpus against a query.
// Results are every match ordered by descending score, ties by ascending id;
// filtering and truncation belong to the caller.
type Retriever interface {
	Search(ctx context.Context, query string) ([]domain.QueryResult, error)
}
