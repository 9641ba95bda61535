package particles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/particlesim/internal/attr"
)

func newTestState(blockSize int) *State {
	d := attr.NewDeclaration()
	d.AddInt32(IDAttribute, 0)
	d.AddFloat3(PositionAttribute, attr.Float3{})
	d.AddFloat("Age", 0)
	s := NewState(blockSize)
	s.Ensure("main", d.Freeze())
	return s
}

func TestAllocator_RoundTripDefaults(t *testing.T) {
	s := newTestState(100)
	a := NewAllocator(s)

	sets := a.Request("main", 5)
	require.Equal(t, 5, sets.Size())

	buf, ok := s.MustContainer("main").Flatten(PositionAttribute)
	require.True(t, ok)
	pos := attr.Data[attr.Float3](buf)
	require.Len(t, pos, 5)
	for _, p := range pos {
		assert.Equal(t, attr.Float3{}, p)
	}
}

func TestAllocator_FillsCachedBlockBeforeAllocating(t *testing.T) {
	// GIVEN a block of capacity 4 that already holds 3 particles from this allocator
	s := newTestState(4)
	a := NewAllocator(s)
	first := a.Request("main", 3)
	require.Len(t, first.Sets(), 1)
	existing := first.Sets()[0].Block()

	// WHEN two more particles are requested
	sets := a.Request("main", 2)

	// THEN one lands in the existing block and one in a new block
	require.Len(t, sets.Sets(), 2)
	assert.Same(t, existing, sets.Sets()[0].Block())
	assert.Equal(t, []int{3}, sets.Sets()[0].Indices())
	assert.True(t, existing.IsFull())

	fresh := sets.Sets()[1].Block()
	assert.NotSame(t, existing, fresh)
	assert.Equal(t, 1, fresh.ActiveCount())
	assert.Equal(t, 2, sets.Size())
	assert.Len(t, a.AllocatedBlocks(), 2)
}

func TestAllocator_LargeRequestSpansBlocks(t *testing.T) {
	s := newTestState(4)
	a := NewAllocator(s)

	sets := a.Request("main", 10)

	assert.Len(t, sets.Sets(), 3)
	assert.Equal(t, 10, sets.Size())
	assert.Equal(t, 10, s.ParticleCount())
}

func TestAllocator_AssignsUniqueIDs(t *testing.T) {
	s := newTestState(3)
	a := NewAllocator(s)
	a.Request("main", 4)
	a.Request("main", 3)

	buf, _ := s.MustContainer("main").Flatten(IDAttribute)
	assert.ElementsMatch(t, []int32{0, 1, 2, 3, 4, 5, 6}, attr.Data[int32](buf))
}

func TestAllocator_ReinitializesReusedSlots(t *testing.T) {
	s := newTestState(4)
	a := NewAllocator(s)
	sets := a.Request("main", 2)
	FillAll(sets, "Age", float32(3))

	b := sets.Sets()[0].Block()
	b.Remove(1)
	sets = a.Request("main", 1)

	assert.Equal(t, []float32{3, 0}, b.ActiveSlice().Float("Age"))
	assert.Equal(t, []int{1}, sets.Sets()[0].Indices())
}

func TestAllocator_InvalidRequests(t *testing.T) {
	s := newTestState(4)
	a := NewAllocator(s)
	assert.Panics(t, func() { a.Request("main", -1) })
	assert.Panics(t, func() { a.Request("spark", 1) })
	assert.Equal(t, 0, a.Request("main", 0).Size())
}

func TestSets_Fill(t *testing.T) {
	s := newTestState(2)
	a := NewAllocator(s)
	sets := a.Request("main", 3)

	sets.FillFloat3(PositionAttribute, []attr.Float3{{X: 1}, {X: 2}, {X: 3}})

	dst := make([]attr.Float3, 8)
	n := s.Positions(dst)
	require.Equal(t, 3, n)
	assert.Equal(t, []attr.Float3{{X: 1}, {X: 2}, {X: 3}}, dst[:n])
	assert.Panics(t, func() { sets.FillFloat("Age", []float32{1}) })
}

func TestState_EnsureMigratesSchema(t *testing.T) {
	s := newTestState(4)
	NewAllocator(s).Request("main", 2)

	d := attr.NewDeclaration()
	d.AddFloat3(PositionAttribute, attr.Float3{})
	d.AddFloat("Size", 0.5)
	s.Ensure("main", d.Freeze())

	b := s.MustContainer("main").Blocks()[0]
	assert.Equal(t, []float32{0.5, 0.5}, b.ActiveSlice().Float("Size"))
	assert.Equal(t, []string{"main"}, s.Kinds())
}
