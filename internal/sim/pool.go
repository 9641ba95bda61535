package sim

import "sync"

// scratchPool recycles per-block float32 buffers across steps.
type scratchPool struct {
	pool sync.Pool
}

func (p *scratchPool) get(n int) []float32 {
	if v, ok := p.pool.Get().(*[]float32); ok && cap(*v) >= n {
		s := (*v)[:n]
		clear(s)
		return s
	}
	return make([]float32, n)
}

func (p *scratchPool) put(s []float32) {
	if cap(s) == 0 {
		return
	}
	p.pool.Put(&s)
}
