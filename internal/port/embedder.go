package port

import "context"

// Embedder maps text to fixed-width vectors.
// Embed and EmbedBatch must agree element-wise for the same input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	// ModelVersion identifies the model and its settings; it keys persisted indexes.
	ModelVersion() string
}
