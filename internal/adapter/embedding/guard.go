package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qualrag/internal/domain"
	"qualrag/internal/port"
)

// Bounded caps the latency of every call to the wrapped model and reports
// any failure as domain.ErrModelUnavailable. A call that outlives the timeout
// is abandoned even if the model ignores its context.
type Bounded struct {
	inner   port.Embedder
	timeout time.Duration
}

// NewBounded wraps inner. A non-positive timeout disables the bound.
func NewBounded(inner port.Embedder, timeout time.Duration) *Bounded {
	return &Bounded{inner: inner, timeout: timeout}
}

func (b *Bounded) Embed(ctx context.Context, text string) ([]float32, error) {
	return bounded(ctx, b.timeout, func(ctx context.Context) ([]float32, error) {
		return b.inner.Embed(ctx, text)
	})
}

func (b *Bounded) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := bounded(ctx, b.timeout, func(ctx context.Context) ([][]float32, error) {
		return b.inner.EmbedBatch(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrModelUnavailable, len(vectors), len(texts))
	}
	return vectors, nil
}

func (b *Bounded) Dimension() int {
	return b.inner.Dimension()
}

func (b *Bounded) ModelVersion() string {
	return b.inner.ModelVersion()
}

func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout <= 0 {
		v, err := fn(ctx)
		return v, unavailable(err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, unavailable(r.err)
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, ctx.Err())
	}
}

func unavailable(err error) error {
	if err == nil || errors.Is(err, domain.ErrModelUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
}

// Unavailable is a model that could not be constructed. Every call fails
// with the construction error so the engine degrades on first use.
type Unavailable struct {
	version string
	cause   error
}

// NewUnavailable records why a model could not be created.
func NewUnavailable(version string, cause error) *Unavailable {
	return &Unavailable{version: version, cause: unavailable(cause)}
}

func (u *Unavailable) Embed(context.Context, string) ([]float32, error) {
	return nil, u.cause
}

func (u *Unavailable) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, u.cause
}

func (u *Unavailable) Dimension() int {
	return 0
}

func (u *Unavailable) ModelVersion() string {
	return u.version
}
