package usecase

import (
	"log/slog"
	"time"

	"qualrag/internal/adapter/analyzer"
	"qualrag/internal/adapter/cache"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCache enables result caching for READY-path searches.
func WithCache(c *cache.QueryCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithProgress registers a callback invoked as units are embedded during a build.
// Calls are serialised.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithMinScore drops results scoring at or below min.
func WithMinScore(min float64) Option {
	return func(e *Engine) {
		e.minScore = min
	}
}

// WithWorkers sets how many embedding batches run concurrently during a build.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithBatchSize sets how many units go into one EmbedBatch call.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithRequirePersistence makes a failed load or persist degrade the engine
// instead of serving an in-memory index.
func WithRequirePersistence(required bool) Option {
	return func(e *Engine) {
		e.requirePersistence = required
	}
}

// WithBuildTimeout bounds the whole build. Zero disables the bound.
func WithBuildTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.buildTimeout = d
	}
}

// WithForceRebuild skips loading a persisted index.
func WithForceRebuild(force bool) Option {
	return func(e *Engine) {
		e.forceRebuild = force
	}
}

// WithTokenizer sets the tokenizer used by the keyword fallback.
func WithTokenizer(t *analyzer.Tokenizer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tokenizer = t
		}
	}
}
