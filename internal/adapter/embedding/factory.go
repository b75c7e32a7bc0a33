package embedding

import (
	"fmt"
	"log/slog"
	"os"

	"qualrag/config"
	"qualrag/internal/port"
)

// New builds the configured embedding model wrapped in a latency bound.
// A model that cannot be constructed is returned as an Unavailable model
// together with the error, so callers can log it and still start in degraded mode.
func New(cfg *config.Config, logger *slog.Logger) (port.Embedder, error) {
	ec := cfg.Embedding

	var (
		model port.Embedder
		err   error
	)
	switch ec.Provider {
	case "local":
		model = NewLocal(ec.Dimension, ec.Stemming)
	case "mock":
		model = NewMock(ec.Dimension)
	case "openai", "ollama":
		model, err = NewRemote(RemoteConfig{
			Provider:          ec.Provider,
			Model:             ec.Model,
			BaseURL:           ec.BaseURL,
			APIKey:            os.Getenv(ec.APIKeyEnv),
			Dimension:         ec.Dimension,
			BatchSize:         ec.BatchSize,
			RequestsPerSecond: ec.RequestsPerSecond,
		}, logger)
	default:
		err = fmt.Errorf("unsupported embedding provider: %s", ec.Provider)
	}
	if err != nil {
		return NewUnavailable(ec.Provider+"/"+ec.Model, err), err
	}

	return NewBounded(model, cfg.EmbeddingTimeout()), nil
}
