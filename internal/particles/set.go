package particles

import (
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/block"
)

// Set refers to a subset of the rows of one block. It never owns storage.
// Indices are sorted and unique.
type Set struct {
	block   *block.Block
	indices []int
}

func NewSet(b *block.Block, indices []int) Set {
	return Set{block: b, indices: indices}
}

// Range builds a set over the rows [start, start+n).
func Range(b *block.Block, start, n int) Set {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = start + i
	}
	return Set{block: b, indices: indices}
}

func (s Set) Block() *block.Block { return s.block }
func (s Set) Indices() []int      { return s.indices }
func (s Set) Size() int           { return len(s.indices) }

// Attributes views every row of the block so that indices can address rows
// that are being initialized.
func (s Set) Attributes() attr.Arrays { return s.block.AllSlice() }

// Sets groups the sets produced by one allocation request.
type Sets struct {
	kind string
	sets []Set
}

func (s *Sets) Kind() string { return s.kind }
func (s *Sets) Sets() []Set  { return s.sets }

func (s *Sets) Size() int {
	n := 0
	for _, set := range s.sets {
		n += set.Size()
	}
	return n
}

// Fill writes values across the sets in order. len(values) must equal Size.
func Fill[T attr.Value](s *Sets, name string, values []T) {
	if len(values) != s.Size() {
		panic("particles: fill length does not match set size")
	}
	offset := 0
	for _, set := range s.sets {
		col := attr.Get[T](set.Attributes(), name)
		for _, i := range set.indices {
			col[i] = values[offset]
			offset++
		}
	}
}

// FillAll writes the same value into every particle of the sets.
func FillAll[T attr.Value](s *Sets, name string, value T) {
	for _, set := range s.sets {
		col := attr.Get[T](set.Attributes(), name)
		for _, i := range set.indices {
			col[i] = value
		}
	}
}

func (s *Sets) FillFloat3(name string, values []attr.Float3) { Fill(s, name, values) }
func (s *Sets) FillFloat(name string, values []float32)      { Fill(s, name, values) }
func (s *Sets) FillColor(name string, values []attr.RGBAf)   { Fill(s, name, values) }
