package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers resolves an n_jobs style setting: n <= 0 means one worker per CPU.
func Workers(nJobs int) int {
	if nJobs <= 0 {
		return runtime.NumCPU()
	}
	return nJobs
}

// Parallelize divides items into contiguous ranges, one per worker, and runs
// fn on each range concurrently. The first error cancels ctx for the other
// workers and is returned once all of them have stopped.
//
// fn receives disjoint [start, end) ranges, so writes to out[i] for i in the
// range need no locking.
func Parallelize(ctx context.Context, items, workers int, fn func(ctx context.Context, start, end int) error) error {
	if items == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items // No need for more workers than items
	}

	// ceiling division
	chunkSize := (items + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		g.Go(func() error {
			return fn(gctx, start, end)
		})
	}
	return g.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over the whole range when
// items is at or below threshold or only one worker is requested.
func ParallelizeWithThreshold(ctx context.Context, items, threshold, workers int, fn func(ctx context.Context, start, end int) error) error {
	if items <= threshold || workers == 1 {
		if items == 0 {
			return nil
		}
		return fn(ctx, 0, items)
	}
	return Parallelize(ctx, items, workers, fn)
}
