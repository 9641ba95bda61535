package block_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/block"
)

var _ = Describe("Container", func() {
	var (
		schema *attr.Schema
		c      *block.Container
	)

	BeforeEach(func() {
		schema = testSchema()
		c = block.NewContainer(schema, 4)
	})

	It("tracks live blocks in insertion order", func() {
		a, b, d := c.NewBlock(), c.NewBlock(), c.NewBlock()
		Expect(c.Blocks()).To(Equal([]*block.Block{a, b, d}))

		c.Release(b)
		Expect(c.Blocks()).To(Equal([]*block.Block{a, d}))
		Expect(c.Len()).To(Equal(2))
	})

	It("stops resolving handles of released blocks", func() {
		a := c.NewBlock()
		h := a.Handle()
		got, ok := c.Block(h)
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(a))

		c.Release(a)
		_, ok = c.Block(h)
		Expect(ok).To(BeFalse())

		reused := c.NewBlock()
		Expect(reused.Handle()).NotTo(Equal(h))
		_, ok = c.Block(h)
		Expect(ok).To(BeFalse())
	})

	It("refuses to release a block with active rows", func() {
		a := c.NewBlock()
		fill(a, 1, 0)
		Expect(func() { c.Release(a) }).To(Panic())
	})

	It("counts and flattens active rows across blocks", func() {
		a, b := c.NewBlock(), c.NewBlock()
		fill(a, 3, 0)
		fill(b, 2, 10)

		Expect(c.CountActive()).To(Equal(5))
		buf, ok := c.Flatten("ID")
		Expect(ok).To(BeTrue())
		Expect(attr.Data[int32](buf)).To(Equal([]int32{0, 1, 2, 10, 11}))

		_, ok = c.Flatten("Missing")
		Expect(ok).To(BeFalse())
	})

	It("issues contiguous id ranges concurrently", func() {
		var wg sync.WaitGroup
		starts := make([]int32, 16)
		for i := range starts {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				starts[i] = c.NewIDs(10)
			}(i)
		}
		wg.Wait()

		seen := map[int32]bool{}
		for _, s := range starts {
			Expect(s % 10).To(BeZero())
			Expect(seen[s]).To(BeFalse())
			seen[s] = true
		}
		Expect(c.NewIDs(0)).To(Equal(int32(160)))
	})

	Describe("UpdateSchema", func() {
		It("keeps retained columns, drops removed ones and fills new ones", func() {
			a := c.NewBlock()
			fill(a, 2, 5)
			posAddr := &a.AllSlice().Float3("Position")[0]

			d := attr.NewDeclaration()
			d.AddFloat3("Position", attr.Float3{})
			d.AddInt32("ID", 0)
			d.AddFloat("Size", 0.25)
			next := d.Freeze()
			c.UpdateSchema(next)

			Expect(a.Schema()).To(BeIdenticalTo(next))
			Expect(&a.AllSlice().Float3("Position")[0]).To(BeIdenticalTo(posAddr))
			Expect(a.ActiveSlice().Int32("ID")).To(Equal([]int32{5, 6}))
			Expect(a.AllSlice().Float("Size")).To(HaveEach(float32(0.25)))
			_, ok := a.ActiveSlice().TryFloat("Age")
			Expect(ok).To(BeFalse())
		})

		It("treats a name reused with another type as a new column", func() {
			a := c.NewBlock()
			fill(a, 1, 0)

			d := attr.NewDeclaration()
			d.AddInt32("ID", 0)
			d.AddFloat3("Position", attr.Float3{})
			d.AddInt32("Age", 9)
			c.UpdateSchema(d.Freeze())

			Expect(a.AllSlice().Int32("Age")).To(HaveEach(int32(9)))
		})

		It("preserves buffer identity when applied twice", func() {
			a := c.NewBlock()
			fill(a, 2, 0)

			d := attr.NewDeclaration()
			d.MergeSchema(schema)
			d.AddFloat("Size", 1)
			next := d.Freeze()
			c.UpdateSchema(next)
			addrs := []any{
				&a.AllSlice().Int32("ID")[0],
				&a.AllSlice().Float3("Position")[0],
				&a.AllSlice().Float("Size")[0],
			}

			c.UpdateSchema(next)
			Expect(&a.AllSlice().Int32("ID")[0]).To(BeIdenticalTo(addrs[0]))
			Expect(&a.AllSlice().Float3("Position")[0]).To(BeIdenticalTo(addrs[1]))
			Expect(&a.AllSlice().Float("Size")[0]).To(BeIdenticalTo(addrs[2]))
		})
	})

	It("compacts and releases empty blocks", func() {
		a, b, d := c.NewBlock(), c.NewBlock(), c.NewBlock()
		fill(a, 1, 0)
		fill(b, 2, 10)
		fill(d, 3, 20)

		released := c.Compact()

		Expect(released).To(Equal(1))
		Expect(c.Len()).To(Equal(2))
		Expect(c.CountActive()).To(Equal(6))
	})
})
