package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"qualrag/internal/domain"
)

// RemoteConfig configures an embedding model served over HTTP.
type RemoteConfig struct {
	Provider          string // "openai" or "ollama"
	Model             string
	BaseURL           string
	APIKey            string
	Dimension         int // 0 = learn from the first response
	BatchSize         int
	RequestsPerSecond float64
}

// Remote embeds through an OpenAI-compatible or Ollama endpoint.
type Remote struct {
	embedder  embeddings.Embedder
	provider  string
	model     string
	dimension atomic.Int64
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewRemote creates a remote embedder. Client construction failures are
// reported as domain.ErrModelUnavailable.
func NewRemote(cfg RemoteConfig, logger *slog.Logger) (*Remote, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: no model configured for %s", domain.ErrModelUnavailable, cfg.Provider)
	}

	var client embeddings.EmbedderClient
	switch cfg.Provider {
	case "openai":
		token := cfg.APIKey
		if token == "" {
			if cfg.BaseURL == "" {
				return nil, fmt.Errorf("%w: openai API key not set", domain.ErrModelUnavailable)
			}
			// local OpenAI-compatible servers accept any token
			token = "none"
		}
		opts := []openai.Option{
			openai.WithToken(token),
			openai.WithEmbeddingModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: openai client: %w", domain.ErrModelUnavailable, err)
		}
		client = llm
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: ollama client: %w", domain.ErrModelUnavailable, err)
		}
		client = llm
	default:
		return nil, fmt.Errorf("%w: unsupported remote provider %q", domain.ErrModelUnavailable, cfg.Provider)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 16
	}
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(batchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}

	r := &Remote{
		embedder: embedder,
		provider: cfg.Provider,
		model:    cfg.Model,
		logger:   logger.With("component", cfg.Provider+"-embedder"),
	}
	dim := cfg.Dimension
	if dim <= 0 {
		dim = knownDimension(cfg.Model)
	}
	r.dimension.Store(int64(dim))
	if cfg.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return r, nil
}

func (e *Remote) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Remote) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
		}
	}

	e.logger.Debug("generating embeddings", "count", len(texts))
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrModelUnavailable, len(vectors), len(texts))
	}

	want := int(e.dimension.Load())
	for _, v := range vectors {
		if want == 0 {
			want = len(v)
			e.dimension.Store(int64(want))
		}
		if len(v) != want {
			return nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, want, len(v))
		}
	}
	return vectors, nil
}

func (e *Remote) Dimension() int {
	return int(e.dimension.Load())
}

func (e *Remote) ModelVersion() string {
	return e.provider + "/" + e.model
}

func knownDimension(model string) int {
	switch model {
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "text-embedding-3-large":
		return 3072
	case "jina-embeddings-v3", "mxbai-embed-large":
		return 1024
	case "nomic-embed-text":
		return 768
	case "all-minilm", "all-MiniLM-L6-v2":
		return 384
	}
	return 0
}
