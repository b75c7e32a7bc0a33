package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"qualrag/internal/adapter/analyzer"
	"qualrag/internal/adapter/cache"
	"qualrag/internal/adapter/retriever"
	"qualrag/internal/domain"
	"qualrag/internal/port"
)

const (
	defaultWorkers      = 4
	defaultBatchSize    = 16
	defaultBuildTimeout = 5 * time.Minute
)

// Engine is the retrieval engine. It builds the vector index on first use,
// serves semantic search once READY and keyword search once DEGRADED.
// A single Engine is shared by every request handler of the process.
type Engine struct {
	source    port.DocumentSource
	embedder  port.Embedder
	index     port.VectorIndex
	semantic  *retriever.SemanticRetriever
	tokenizer *analyzer.Tokenizer
	cache     *cache.QueryCache
	logger    *slog.Logger
	progress  func(done, total int)

	minScore           float64
	workers            int
	batchSize          int
	buildTimeout       time.Duration
	requirePersistence bool
	forceRebuild       bool

	state   atomic.Int32
	buildMu sync.Mutex
	builds  atomic.Int64
	built   atomic.Pointer[buildResult]
}

// buildResult is published once per build, before the state settles.
type buildResult struct {
	units         []domain.TextUnit
	corpusVersion string
	keyword       *retriever.KeywordRetriever
	persisted     bool
	cause         error
}

func NewEngine(source port.DocumentSource, embedder port.Embedder, index port.VectorIndex, opts ...Option) *Engine {
	e := &Engine{
		source:       source,
		embedder:     embedder,
		index:        index,
		logger:       slog.Default(),
		workers:      defaultWorkers,
		batchSize:    defaultBatchSize,
		buildTimeout: defaultBuildTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tokenizer == nil {
		e.tokenizer = analyzer.NewTokenizer(true)
	}
	e.logger = e.logger.With("component", "engine")
	e.semantic = retriever.NewSemanticRetriever(index, embedder)
	e.state.Store(int32(domain.StateUninitialized))
	return e
}

// State returns the current state without triggering a build.
func (e *Engine) State() domain.EngineState {
	return domain.EngineState(e.state.Load())
}

// Builds returns how many builds have run in this process.
func (e *Engine) Builds() int64 {
	return e.builds.Load()
}

// EnsureReady builds the index if nobody has yet and returns the settled state.
// Concurrent callers wait for the one build in progress. Once settled it is a
// plain read.
func (e *Engine) EnsureReady(ctx context.Context) domain.EngineState {
	if s := e.State(); s.Settled() {
		return s
	}

	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	if s := e.State(); s.Settled() {
		return s
	}
	e.build(ctx)
	return e.State()
}

// Search ranks the corpus against req. Malformed requests fail with
// domain.ErrInvalidQuery before any state transition; well-formed ones never
// fail because of the model or the storage.
func (e *Engine) Search(ctx context.Context, req domain.SearchRequest) ([]domain.QueryResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	if req.Category != "" && !req.Category.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", domain.ErrInvalidQuery, domain.ErrUnknownCategory, req.Category)
	}

	state := e.EnsureReady(ctx)
	built := e.built.Load()
	if built == nil || len(built.units) == 0 {
		return []domain.QueryResult{}, nil
	}

	req.Query = query
	req.TopK = clampTopK(req.TopK, len(built.units))

	if state == domain.StateReady && e.cache != nil {
		if results, ok := e.cache.Get(req); ok {
			return results, nil
		}
	}

	var (
		ranked   []domain.QueryResult
		err      error
		fellBack bool
	)
	if state == domain.StateReady {
		ranked, err = e.semantic.Search(ctx, query)
		if err != nil {
			e.logger.Warn("semantic search failed, using keyword match", "error", err)
			fellBack = true
		}
	}
	if state != domain.StateReady || fellBack {
		ranked, err = built.keyword.Search(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	results := e.selectResults(ranked, req)
	if state == domain.StateReady && !fellBack && e.cache != nil {
		e.cache.Put(req, results)
	}
	return results, nil
}

// Status reports the engine health without triggering a build.
func (e *Engine) Status() domain.Status {
	st := domain.Status{
		State:        e.State(),
		ModelVersion: e.embedder.ModelVersion(),
		Builds:       e.builds.Load(),
	}
	if built := e.built.Load(); built != nil {
		st.CorpusSize = len(built.units)
		st.CorpusVersion = built.corpusVersion
		st.Persisted = built.persisted
		if built.cause != nil {
			st.Cause = built.cause.Error()
		}
	}
	return st
}

// selectResults filters by category and score before truncating to TopK.
// ranked is already ordered.
func (e *Engine) selectResults(ranked []domain.QueryResult, req domain.SearchRequest) []domain.QueryResult {
	results := make([]domain.QueryResult, 0, req.TopK)
	for _, r := range ranked {
		if req.Category != "" && r.Category != req.Category {
			continue
		}
		if r.Score <= e.minScore {
			continue
		}
		results = append(results, r)
		if len(results) == req.TopK {
			break
		}
	}
	return results
}

func clampTopK(k, corpusSize int) int {
	if k > corpusSize {
		k = corpusSize
	}
	if k < 1 {
		k = 1
	}
	return k
}
