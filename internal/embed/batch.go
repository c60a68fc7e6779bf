package embed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// BatchOptions controls EmbedAll.
type BatchOptions struct {
	// BatchSize is the number of texts per EmbedBatch call (default: 32)
	BatchSize int
	// Workers is the number of concurrent calls (default: 1)
	Workers int
	// Progress is called after each batch with (completed, total) counts
	Progress func(completed, total int)
}

// EmbedAll embeds texts in batches spread over a worker pool. The result is
// in input order. The first failure cancels outstanding batches and is
// returned; no partial result is returned.
func EmbedAll(ctx context.Context, e Embedder, texts []string, opts BatchOptions) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchSize > MaxBatchSize {
		opts.BatchSize = MaxBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		errOnce   sync.Once
		firstErr  error
		completed atomic.Int64
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	results := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += opts.BatchSize {
		if ctx.Err() != nil {
			break
		}
		start, end := start, min(start+opts.BatchSize, len(texts))

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}

			vecs, err := e.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				fail(err)
				return
			}
			if len(vecs) != end-start {
				fail(fmt.Errorf("embedder returned %d embeddings for %d texts", len(vecs), end-start))
				return
			}
			copy(results[start:end], vecs)

			done := completed.Add(int64(end - start))
			if opts.Progress != nil {
				opts.Progress(int(done), len(texts))
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("failed to submit embedding batch: %w", submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
