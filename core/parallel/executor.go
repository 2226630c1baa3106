// Package parallel implements level-based parallel execution of ledger
// instructions. Every instruction names the records it touches up front, so
// access sets are fully static and no optimistic re-execution is needed.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ExecFn executes the instruction at index idx. A non-nil error is fatal and
// aborts the whole run; per-instruction rejections must be recorded by the
// callee instead.
type ExecFn func(ctx context.Context, idx int) error

// CommitFn publishes the results of one level. It is called serially, once
// per level, in level order.
type CommitFn func(level []int) error

// parallelThreshold is the minimum level size for the concurrent path.
const parallelThreshold = 2

// ExecuteLevels runs every level of accessSets with up to workers
// instructions in flight, committing each level before the next starts.
func ExecuteLevels(ctx context.Context, accessSets []AccessSet, workers int, exec ExecFn, commit CommitFn) error {
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	for _, level := range BuildLevels(accessSets) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if workers == 1 || len(level) < parallelThreshold {
			for _, idx := range level {
				if err := exec(ctx, idx); err != nil {
					return err
				}
			}
		} else {
			g, gctx := errgroup.WithContext(ctx)
			for _, idx := range level {
				if err := sem.Acquire(gctx, 1); err != nil {
					break
				}
				idx := idx
				g.Go(func() error {
					defer sem.Release(1)
					return exec(gctx, idx)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := commit(level); err != nil {
			return err
		}
	}
	return nil
}
