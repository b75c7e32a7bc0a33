// Package app wires the retrieval engine from configuration.
package app

import (
	"fmt"
	"log/slog"

	"qualrag/config"
	"qualrag/internal/adapter/analyzer"
	"qualrag/internal/adapter/cache"
	"qualrag/internal/adapter/corpus"
	"qualrag/internal/adapter/embedding"
	"qualrag/internal/adapter/memstore"
	"qualrag/internal/adapter/store"
	badgerstore "qualrag/internal/adapter/store/badger"
	"qualrag/internal/adapter/store/bolt"
	"qualrag/internal/port"
	"qualrag/internal/usecase"
)

// App holds the process-wide components shared by every entry point.
type App struct {
	Engine *usecase.Engine
	Index  *store.VectorIndex
	Source *corpus.Source
}

// NewSource builds the document source named by cfg.Corpus.
func NewSource(cfg *config.Config, logger *slog.Logger) *corpus.Source {
	return corpus.NewSource(
		corpus.WithLogger(logger),
		corpus.WithBuiltin(cfg.Corpus.Builtin),
		corpus.WithDirs(cfg.Corpus.Dirs, cfg.Corpus.Includes, cfg.Corpus.Excludes),
	)
}

// NewBackend selects the durable store named by cfg.Index.Backend.
func NewBackend(cfg *config.Config, logger *slog.Logger) (port.IndexBackend, error) {
	switch cfg.Index.Backend {
	case "", "bolt":
		return bolt.NewBackend(cfg.IndexPath(), cfg.OpenTimeout()), nil
	case "badger":
		return badgerstore.NewBackend(cfg.IndexPath(), logger), nil
	case "memory":
		return memstore.NewMemoryBackend(), nil
	}
	return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
}

// New wires the engine. A model that cannot be constructed is logged and
// leaves the engine to degrade on first use.
func New(cfg *config.Config, logger *slog.Logger, extra ...usecase.Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	source := NewSource(cfg, logger)

	embedder, err := embedding.New(cfg, logger)
	if err != nil {
		logger.Warn("embedding model unavailable, keyword matching only", "provider", cfg.Embedding.Provider, "error", err)
	}

	backend, err := NewBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Index.Backend != "memory" {
		if err := cfg.EnsureDataDir(); err != nil {
			logger.Warn("cannot create data dir", "path", cfg.DataDir, "error", err)
		}
	}
	index := store.NewVectorIndex(backend, store.WithLogger(logger))

	opts := []usecase.Option{
		usecase.WithLogger(logger),
		usecase.WithMinScore(cfg.Retrieve.MinScore),
		usecase.WithWorkers(cfg.Embedding.Workers),
		usecase.WithBatchSize(cfg.Embedding.BatchSize),
		usecase.WithRequirePersistence(cfg.Index.RequirePersistence),
		usecase.WithBuildTimeout(cfg.BuildTimeout()),
		usecase.WithTokenizer(analyzer.NewTokenizer(cfg.Embedding.Stemming)),
	}
	if cfg.Retrieve.CacheSize > 0 {
		opts = append(opts, usecase.WithCache(cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.CacheTTL())))
	}
	opts = append(opts, extra...)

	return &App{
		Engine: usecase.NewEngine(source, embedder, index, opts...),
		Index:  index,
		Source: source,
	}, nil
}
