package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"qualrag/internal/adapter/corpus"
	"qualrag/internal/adapter/retriever"
	"qualrag/internal/adapter/store"
	"qualrag/internal/domain"
)

// build runs with buildMu held. It always leaves the engine READY or DEGRADED.
func (e *Engine) build(ctx context.Context) {
	e.state.Store(int32(domain.StateBuilding))
	e.builds.Add(1)
	start := time.Now()

	// A caller giving up must not leave every later caller DEGRADED.
	ctx = context.WithoutCancel(ctx)
	if e.buildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.buildTimeout)
		defer cancel()
	}

	units, err := e.source.ListUnits(ctx)
	if err != nil {
		e.fail(&buildResult{}, fmt.Errorf("list corpus: %w", err))
		return
	}
	result := &buildResult{
		units:         units,
		corpusVersion: corpus.Version(units),
		keyword:       retriever.NewKeywordRetriever(units, e.tokenizer),
	}
	want := store.NewManifest(e.embedder.ModelVersion(), result.corpusVersion)
	log := e.logger.With("units", len(units), "model", want.ModelVersion, "corpus_version", result.corpusVersion)

	var storageErr error
	if !e.forceRebuild {
		err := e.index.Load(ctx, want)
		switch {
		case err == nil:
			if _, err := e.embedder.Embed(ctx, "readiness probe"); err != nil {
				e.fail(result, fmt.Errorf("model probe: %w", err))
				return
			}
			result.persisted = true
			e.succeed(result)
			log.Info("index loaded from storage", "records", e.index.Len(), "duration", time.Since(start))
			return
		case domain.IsRebuildable(err):
			log.Info("building index", "reason", err)
		default:
			if e.requirePersistence {
				e.fail(result, fmt.Errorf("load index: %w", err))
				return
			}
			storageErr = err
			log.Warn("index storage unreadable, building in memory", "error", err)
		}
	}

	vectors, err := e.embedUnits(ctx, units)
	if err != nil {
		e.fail(result, fmt.Errorf("embed corpus: %w", err))
		return
	}

	records := make([]domain.IndexRecord, len(units))
	for i, u := range units {
		records[i] = domain.IndexRecord{
			ID:       u.ID,
			Vector:   vectors[i],
			Body:     u.Body,
			Category: u.Category,
		}
	}
	if err := e.index.UpsertBatch(records); err != nil {
		e.fail(result, fmt.Errorf("populate index: %w", err))
		return
	}

	if storageErr == nil {
		m := want
		m.BuildID = uuid.NewString()
		m.BuiltAt = time.Now().UTC()
		storageErr = e.index.Persist(ctx, m)
		if storageErr == nil {
			result.persisted = true
		}
	}
	if storageErr != nil {
		if e.requirePersistence {
			e.fail(result, fmt.Errorf("persist index: %w", storageErr))
			return
		}
		result.cause = storageErr
		log.Warn("index not persisted, serving from memory", "error", storageErr)
	}

	e.succeed(result)
	log.Info("index built", "persisted", result.persisted, "duration", time.Since(start))
}

func (e *Engine) succeed(result *buildResult) {
	if e.cache != nil {
		e.cache.Invalidate()
	}
	e.built.Store(result)
	e.state.Store(int32(domain.StateReady))
}

// fail records cause and degrades the engine for the rest of the process.
func (e *Engine) fail(result *buildResult, cause error) {
	e.state.Store(int32(domain.StateBuildFailed))
	result.cause = cause
	if result.keyword == nil {
		result.keyword = retriever.NewKeywordRetriever(result.units, e.tokenizer)
	}
	e.built.Store(result)
	e.logger.Error("index build failed, serving keyword matches only", "error", cause)
	e.state.Store(int32(domain.StateDegraded))
}

// embedUnits embeds unit bodies in batches on a bounded pool. The returned
// vectors are in unit order.
func (e *Engine) embedUnits(ctx context.Context, units []domain.TextUnit) ([][]float32, error) {
	vectors := make([][]float32, len(units))
	if len(units) == 0 {
		return vectors, nil
	}
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Body
	}

	pool, err := ants.NewPool(e.workers)
	if err != nil {
		return nil, fmt.Errorf("create embedding pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg         sync.WaitGroup
		errOnce    sync.Once
		firstErr   error
		done       int
		progressMu sync.Mutex
	)
	setErr := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			batch, err := e.embedder.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				setErr(err)
				return
			}
			if len(batch) != end-start {
				setErr(fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrModelUnavailable, len(batch), end-start))
				return
			}
			copy(vectors[start:end], batch)

			progressMu.Lock()
			done += end - start
			if e.progress != nil {
				e.progress(done, len(texts))
			}
			progressMu.Unlock()
		})
		if err != nil {
			wg.Done()
			setErr(fmt.Errorf("submit embedding batch: %w", err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: no vector for %s", domain.ErrModelUnavailable, units[i].ID)
		}
	}
	return vectors, nil
}
