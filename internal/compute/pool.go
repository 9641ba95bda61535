package compute

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// serialThreshold is the task count below which ForEach runs inline.
const serialThreshold = 2

// Pool runs indexed tasks on a fixed number of workers. Each task is told
// which worker slot runs it so callers can keep per-worker scratch state
// without locking.
type Pool struct {
	workers int
}

// NewPool creates a pool of n workers; n <= 0 uses runtime.NumCPU.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return &Pool{workers: n}
}

func (p *Pool) Workers() int { return p.workers }

// ForEach calls fn(worker, i) for every i in [0, n) and waits for all calls to
// return. Tasks are pulled in index order; at most one task runs per worker
// slot at a time. The first error cancels the remaining tasks and is returned.
func (p *Pool) ForEach(ctx context.Context, n int, fn func(worker, i int) error) error {
	if n <= 0 {
		return nil
	}
	if n < serialThreshold || p.workers == 1 {
		for i := 0; i < n; i++ {
			if err := fn(0, i); err != nil {
				return err
			}
		}
		return nil
	}

	workers := min(p.workers, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var next atomic.Int64
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				i := int(next.Add(1) - 1)
				if i >= n {
					return nil
				}
				if err := fn(w, i); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}
