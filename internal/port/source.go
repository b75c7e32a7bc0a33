package port

import (
	"context"

	"qualrag/internal/domain"
)

// DocumentSource supplies the corpus. ListUnits is deterministic and may be expensive.
type DocumentSource interface {
	ListUnits(ctx context.Context) ([]domain.TextUnit, error)
}
