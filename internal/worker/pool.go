package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Task is one input together with the outcome of processing it.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
	// Skipped is set when the context was cancelled before the input was
	// picked up.
	Skipped bool
}

// ProcessFunc processes a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// ProgressFunc is called after each input finishes, with the number of
// finished inputs so far.
type ProgressFunc func(done, total int)

// Pool runs a ProcessFunc over a slice of inputs with bounded concurrency.
type Pool[T any, R any] struct {
	workers    int
	process    ProcessFunc[T, R]
	onProgress ProgressFunc
}

func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// OnProgress registers a progress callback. It may be called from several
// goroutines at once.
func (p *Pool[T, R]) OnProgress(fn ProgressFunc) *Pool[T, R] {
	p.onProgress = fn
	return p
}

// Execute processes every input and returns the outcomes in input order.
// After cancellation no new inputs are started; the remaining ones come back
// with Skipped set and the context error.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	for i := range inputs {
		results[i] = Task[T, R]{Input: inputs[i], Skipped: true}
	}

	inputCh := make(chan int)
	var (
		wg   sync.WaitGroup
		done atomic.Int64
	)

	workers := min(p.workers, len(inputs))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				result, err := p.process(ctx, inputs[idx])
				results[idx] = Task[T, R]{
					Input:  inputs[idx],
					Result: result,
					Err:    err,
				}
				if err != nil {
					log.Error().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
				}
				n := done.Add(1)
				if p.onProgress != nil {
					p.onProgress(int(n), len(inputs))
				}
			}
		}(w)
	}

send:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break send
		case inputCh <- i:
		}
	}
	close(inputCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := range results {
			if results[i].Skipped {
				results[i].Err = err
			}
		}
	}
	return results
}

// Batch splits items into consecutive chunks of at most batchSize.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 1
	}
	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}
