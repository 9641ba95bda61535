package block_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/block"
)

func testSchema() *attr.Schema {
	d := attr.NewDeclaration()
	d.AddInt32("ID", 0)
	d.AddFloat3("Position", attr.Float3{})
	d.AddFloat("Age", 0)
	return d.Freeze()
}

// fill appends n rows to b whose ID is base+i.
func fill(b *block.Block, n int, base int32) {
	start := b.ActiveCount()
	b.SetActiveCount(start + n)
	ids := b.ActiveSlice().Int32("ID")
	pos := b.ActiveSlice().Float3("Position")
	for i := 0; i < n; i++ {
		ids[start+i] = base + int32(i)
		pos[start+i] = attr.Float3{X: float32(base) + float32(i)}
	}
}

func activeIDs(blocks ...*block.Block) []int32 {
	var out []int32
	for _, b := range blocks {
		out = append(out, b.ActiveSlice().Int32("ID")...)
	}
	return out
}

var _ = Describe("Block", func() {
	var schema *attr.Schema

	BeforeEach(func() {
		schema = testSchema()
	})

	It("starts empty with one column per attribute", func() {
		b := block.New(schema, 8)
		Expect(b.Capacity()).To(Equal(8))
		Expect(b.ActiveCount()).To(BeZero())
		Expect(b.ActiveSlice().Size()).To(BeZero())
		Expect(b.AllSlice().Float3("Position")).To(HaveLen(8))
	})

	It("rejects an active count above capacity", func() {
		b := block.New(schema, 4)
		Expect(func() { b.SetActiveCount(5) }).To(Panic())
		Expect(func() { b.SetActiveCount(-1) }).To(Panic())
	})

	Describe("Remove", func() {
		It("moves the last active row into the removed slot", func() {
			b := block.New(schema, 8)
			fill(b, 5, 10)
			before := b.ActiveSlice().Float3("Position")
			last := before[4]

			b.Remove(1)

			Expect(b.ActiveCount()).To(Equal(4))
			Expect(activeIDs(b)).To(Equal([]int32{10, 14, 12, 13}))
			Expect(b.ActiveSlice().Float3("Position")[1]).To(Equal(last))
		})

		It("removes the last row without moving", func() {
			b := block.New(schema, 4)
			fill(b, 3, 0)
			b.Remove(2)
			Expect(activeIDs(b)).To(Equal([]int32{0, 1}))
		})

		It("keeps column storage in place", func() {
			b := block.New(schema, 4)
			fill(b, 4, 0)
			addr := &b.AllSlice().Float3("Position")[0]
			b.Remove(0)
			b.Move(1, 0)
			Expect(&b.AllSlice().Float3("Position")[0]).To(BeIdenticalTo(addr))
		})
	})

	Describe("MoveUntilFull", func() {
		It("moves the tail of the source into the free tail of the target", func() {
			from := block.New(schema, 4)
			to := block.New(schema, 4)
			fill(from, 3, 0)
			fill(to, 2, 10)

			moved := block.MoveUntilFull(from, to)

			Expect(moved).To(Equal(2))
			Expect(activeIDs(from)).To(Equal([]int32{0}))
			Expect(activeIDs(to)).To(Equal([]int32{10, 11, 1, 2}))
		})

		It("is a no-op once the source is drained", func() {
			from := block.New(schema, 4)
			to := block.New(schema, 8)
			fill(from, 3, 0)
			fill(to, 1, 10)

			Expect(block.MoveUntilFull(from, to)).To(Equal(3))
			snapshot := activeIDs(to)
			Expect(block.MoveUntilFull(from, to)).To(BeZero())
			Expect(activeIDs(to)).To(Equal(snapshot))
		})

		It("refuses blocks with different schemas", func() {
			from := block.New(schema, 4)
			to := block.New(testSchema(), 4)
			Expect(func() { block.MoveUntilFull(from, to) }).To(Panic())
		})
	})

	Describe("Compress", func() {
		It("leaves at most one partially filled block and preserves the total", func() {
			counts := []int{3, 7, 1, 8, 5, 2}
			blocks := make([]*block.Block, len(counts))
			total := 0
			for i, n := range counts {
				blocks[i] = block.New(schema, 8)
				fill(blocks[i], n, int32(100*i))
				total += n
			}
			ids := activeIDs(blocks...)

			block.Compress(blocks)

			partial, sum := 0, 0
			for _, b := range blocks {
				Expect(b.ActiveCount()).To(BeNumerically("<=", b.Capacity()))
				if b.ActiveCount() > 0 && !b.IsFull() {
					partial++
				}
				sum += b.ActiveCount()
			}
			Expect(partial).To(BeNumerically("<=", 1))
			Expect(sum).To(Equal(total))
			Expect(activeIDs(blocks...)).To(ConsistOf(ids))
		})

		It("handles all-empty and single-block inputs", func() {
			a := block.New(schema, 4)
			block.Compress([]*block.Block{a})
			b := block.New(schema, 4)
			block.Compress([]*block.Block{a, b})
			Expect(a.ActiveCount() + b.ActiveCount()).To(BeZero())
		})
	})
})
