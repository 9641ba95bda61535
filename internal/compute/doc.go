// Package compute runs block-sized tasks in parallel.
//
// A [Pool] has a fixed number of worker slots. ForEach hands every task the
// slot index it runs on, so callers can index per-worker scratch space such
// as allocators and random sources without synchronization:
//
//	pool := compute.NewPool(0)
//	err := pool.ForEach(ctx, len(blocks), func(worker, i int) error {
//		return simulate(blocks[i], scratch[worker])
//	})
package compute
