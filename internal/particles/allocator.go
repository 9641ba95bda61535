package particles

import (
	"fmt"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/block"
)

// IDAttribute receives ids from the container counter on allocation.
const IDAttribute = "ID"

// Allocator hands out storage for new particles during one segment of a step.
// It fills a block across successive requests until the block is full, and
// only ever writes into blocks it created, so every row of an allocated block
// is a particle born in this segment. An Allocator is not safe for concurrent
// use; every worker owns one.
type Allocator struct {
	state     *State
	nonFull   map[string][]*block.Block
	allocated []Allocation
}

// Allocation is a block created by an Allocator together with its kind.
type Allocation struct {
	Kind  string
	Block *block.Block
}

func NewAllocator(state *State) *Allocator {
	return &Allocator{
		state:   state,
		nonFull: make(map[string][]*block.Block),
	}
}

// Request reserves count new particles of kind, initialized to the schema
// defaults.
func (a *Allocator) Request(kind string, count int) *Sets {
	if count < 0 {
		panic(fmt.Sprintf("particles: negative request %d for %q", count, kind))
	}
	c := a.state.MustContainer(kind)
	out := &Sets{kind: kind}

	for remaining := count; remaining > 0; {
		b := a.nonFullBlock(kind, c)
		start := b.ActiveCount()
		n := min(b.Unused(), remaining)

		all := b.AllSlice()
		all.FillDefaults(start, start+n)
		if ids, ok := attr.TryGet[int32](all, IDAttribute); ok {
			first := c.NewIDs(n)
			for i := 0; i < n; i++ {
				ids[start+i] = first + int32(i)
			}
		}
		b.SetActiveCount(start + n)

		out.sets = append(out.sets, Range(b, start, n))
		remaining -= n
	}
	return out
}

func (a *Allocator) nonFullBlock(kind string, c *block.Container) *block.Block {
	cached := a.nonFull[kind]
	for len(cached) > 0 && cached[0].IsFull() {
		cached = cached[1:]
	}
	if len(cached) == 0 {
		b := c.NewBlock()
		cached = append(cached, b)
		a.allocated = append(a.allocated, Allocation{Kind: kind, Block: b})
	}
	a.nonFull[kind] = cached
	return cached[0]
}

// AllocatedBlocks lists every block this allocator created, in creation order.
func (a *Allocator) AllocatedBlocks() []Allocation {
	return a.allocated
}
