package block

import (
	"fmt"
	"sort"

	"github.com/san-kum/particlesim/internal/attr"
)

// Block is a fixed-capacity set of columns. Active rows occupy [0, ActiveCount)
// in every column; rows past that are unused and may hold stale values.
type Block struct {
	handle   Handle
	schema   *attr.Schema
	buffers  []attr.Buffer
	capacity int
	active   int
}

// New allocates a standalone block. Blocks that belong to a simulation are
// created through Container.NewBlock.
func New(schema *attr.Schema, capacity int) *Block {
	if capacity <= 0 {
		panic(fmt.Sprintf("block: capacity must be positive, got %d", capacity))
	}
	b := &Block{
		schema:   schema,
		buffers:  make([]attr.Buffer, schema.Size()),
		capacity: capacity,
	}
	for i := range b.buffers {
		b.buffers[i] = attr.NewBuffer(schema.Type(i), capacity)
	}
	return b
}

func (b *Block) Handle() Handle       { return b.handle }
func (b *Block) Schema() *attr.Schema { return b.schema }
func (b *Block) Capacity() int        { return b.capacity }
func (b *Block) ActiveCount() int     { return b.active }
func (b *Block) Unused() int          { return b.capacity - b.active }
func (b *Block) IsFull() bool         { return b.active == b.capacity }

// SetActiveCount changes the number of active rows. n must not exceed the
// capacity.
func (b *Block) SetActiveCount(n int) {
	if n < 0 || n > b.capacity {
		panic(fmt.Sprintf("block: active count %d outside [0, %d]", n, b.capacity))
	}
	b.active = n
}

// ActiveSlice views the active rows.
func (b *Block) ActiveSlice() attr.Arrays {
	return attr.NewArrays(b.schema, b.buffers, 0, b.active)
}

// AllSlice views every row up to the capacity.
func (b *Block) AllSlice() attr.Arrays {
	return attr.NewArrays(b.schema, b.buffers, 0, b.capacity)
}

// Move copies the full row at src over the row at dst.
func (b *Block) Move(src, dst int) {
	if src < 0 || src >= b.capacity || dst < 0 || dst >= b.capacity {
		panic(fmt.Sprintf("block: move %d -> %d outside capacity %d", src, dst, b.capacity))
	}
	for _, buf := range b.buffers {
		buf.Move(src, dst)
	}
}

// Remove deletes the active row at index by moving the last active row into
// its place. Row order is not preserved.
func (b *Block) Remove(index int) {
	if index < 0 || index >= b.active {
		panic(fmt.Sprintf("block: remove %d outside active count %d", index, b.active))
	}
	last := b.active - 1
	if index != last {
		b.Move(last, index)
	}
	b.active--
}

// MoveUntilFull moves trailing active rows of from into the unused tail of to
// until from is empty or to is full. Both blocks must share a schema.
func MoveUntilFull(from, to *Block) int {
	if from.schema != to.schema {
		panic("block: move between blocks with different schemas")
	}
	n := min(from.active, to.capacity-to.active)
	if n == 0 {
		return 0
	}
	src := from.active - n
	for i, buf := range to.buffers {
		s := from.buffers[i]
		for j := 0; j < n; j++ {
			buf.CopyFrom(s, src+j, to.active+j)
		}
	}
	from.active -= n
	to.active += n
	return n
}

// Compress redistributes active rows so that at most one block is left
// partially filled. Emptied blocks keep their storage; the caller releases
// them. blocks is reordered by ascending active count.
func Compress(blocks []*Block) {
	if len(blocks) < 2 {
		return
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].active < blocks[j].active
	})

	lastNonFull := len(blocks) - 1
	for i := 0; i < len(blocks); i++ {
		from := blocks[i]
		for i < lastNonFull {
			to := blocks[lastNonFull]
			if to.IsFull() {
				lastNonFull--
				continue
			}
			MoveUntilFull(from, to)
			if from.active == 0 {
				break
			}
		}
	}
}
