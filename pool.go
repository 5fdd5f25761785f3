package sentinell

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/semaphore"
)

// DefaultWorkers is the pool size used when NewWorkerPool receives a non-positive value.
const DefaultWorkers = 8

// WorkerPool bounds the number of goroutines doing blocking work (network I/O, model calls)
// on behalf of supervisors. One pool is normally shared by the whole process.
type WorkerPool struct {
	size int64
	sem  *semaphore.Weighted
}

// NewWorkerPool creates a pool with size slots.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = DefaultWorkers
	}
	return &WorkerPool{
		size: int64(size),
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

// Size returns the number of slots.
func (p *WorkerPool) Size() int {
	return int(p.size)
}

// Offload runs fn on a pooled goroutine and blocks until it returns. Cancelling ctx aborts the
// wait for a free slot or for the result; a started fn keeps running until it returns and its
// slot is released then. A panic in fn is returned as an error.
func Offload[T any](ctx context.Context, pool *WorkerPool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := pool.sem.Acquire(ctx, 1); err != nil {
		return zero, goerr.Wrap(err, "failed to acquire worker")
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer pool.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: goerr.New(fmt.Sprintf("panic: %v", r))}
			}
		}()
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, goerr.Wrap(ctx.Err(), "offloaded work abandoned")
	}
}
