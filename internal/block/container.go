package block

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/particlesim/internal/attr"
)

// Handle names a block owned by a Container. Handles of released blocks stop
// resolving; the slot generation guards against reuse.
type Handle struct {
	index uint32
	gen   uint32
}

func (h Handle) IsZero() bool { return h.gen == 0 }

type slot struct {
	gen   uint32
	block *Block
}

// Container owns every block of one particle kind.
type Container struct {
	mu        sync.Mutex
	schema    *attr.Schema
	blockSize int
	slots     []slot
	free      []uint32
	live      []*Block
	nextID    atomic.Int64
	log       *logrus.Entry
}

func NewContainer(schema *attr.Schema, blockSize int) *Container {
	if blockSize <= 0 {
		panic(fmt.Sprintf("block: block size must be positive, got %d", blockSize))
	}
	return &Container{
		schema:    schema,
		blockSize: blockSize,
		log:       logrus.WithField("component", "block"),
	}
}

// SetLogger replaces the container's log entry.
func (c *Container) SetLogger(log *logrus.Entry) { c.log = log }

func (c *Container) Schema() *attr.Schema { return c.schema }
func (c *Container) BlockSize() int       { return c.blockSize }

// NewBlock allocates an empty block of BlockSize rows under the current schema.
// Safe for concurrent use.
func (c *Container) NewBlock() *Block {
	b := New(c.schema, c.blockSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	var idx uint32
	if n := len(c.free); n > 0 {
		idx = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		idx = uint32(len(c.slots))
		c.slots = append(c.slots, slot{})
	}
	s := &c.slots[idx]
	s.gen++
	s.block = b
	b.handle = Handle{index: idx, gen: s.gen}
	c.live = append(c.live, b)
	return b
}

// Release frees an empty block. Safe for concurrent use.
func (c *Container) Release(b *Block) {
	if b.active != 0 {
		panic(fmt.Sprintf("block: release of block with %d active rows", b.active))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.lookup(b.handle)
	if s == nil || s.block != b {
		panic("block: release of block not owned by container")
	}
	s.block = nil
	s.gen++
	c.free = append(c.free, b.handle.index)
	for i, lb := range c.live {
		if lb == b {
			c.live = append(c.live[:i], c.live[i+1:]...)
			break
		}
	}
	b.buffers = nil
	b.capacity = 0
}

func (c *Container) lookup(h Handle) *slot {
	if h.IsZero() || int(h.index) >= len(c.slots) {
		return nil
	}
	s := &c.slots[h.index]
	if s.gen != h.gen {
		return nil
	}
	return s
}

// Block resolves a handle to a live block.
func (c *Container) Block(h Handle) (*Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.lookup(h)
	if s == nil || s.block == nil {
		return nil, false
	}
	return s.block, true
}

// Blocks returns the live blocks in insertion order.
func (c *Container) Blocks() []*Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Block, len(c.live))
	copy(out, c.live)
	return out
}

func (c *Container) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// CountActive sums the active rows of every live block.
func (c *Container) CountActive() int {
	total := 0
	for _, b := range c.Blocks() {
		total += b.active
	}
	return total
}

// UpdateSchema migrates every live block to schema. Columns whose name and
// type exist in the old schema are kept as is; new columns are filled with
// their default over the full capacity.
func (c *Container) UpdateSchema(schema *attr.Schema) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.schema
	if old == schema {
		return
	}
	retained := make([]int, schema.Size())
	added := 0
	for i := range retained {
		retained[i] = -1
		if j, ok := old.Index(schema.Name(i)); ok && old.Type(j) == schema.Type(i) {
			retained[i] = j
		} else {
			added++
		}
	}

	for _, b := range c.live {
		buffers := make([]attr.Buffer, schema.Size())
		for i, j := range retained {
			if j >= 0 {
				buffers[i] = b.buffers[j]
			} else {
				buffers[i] = attr.NewFilledBuffer(schema.Type(i), b.capacity, schema.Default(i))
			}
		}
		b.buffers = buffers
		b.schema = schema
	}
	c.schema = schema
	c.log.WithFields(logrus.Fields{
		"blocks":  len(c.live),
		"added":   added,
		"removed": old.Size() - (schema.Size() - added),
	}).Debug("schema updated")
}

// Flatten gathers one column of every live block into a dense buffer in block
// order.
func (c *Container) Flatten(name string) (attr.Buffer, bool) {
	blocks := c.Blocks()
	c.mu.Lock()
	schema := c.schema
	c.mu.Unlock()

	i, ok := schema.Index(name)
	if !ok {
		return nil, false
	}
	total := 0
	for _, b := range blocks {
		total += b.active
	}
	out := attr.NewBuffer(schema.Type(i), total)
	offset := 0
	for _, b := range blocks {
		b.buffers[i].Gather(out, offset, 0, b.active)
		offset += b.active
	}
	return out, true
}

// NewIDs reserves count consecutive particle ids and returns the first.
func (c *Container) NewIDs(count int) int32 {
	if count < 0 {
		panic(fmt.Sprintf("block: negative id count %d", count))
	}
	end := c.nextID.Add(int64(count))
	if end > math.MaxInt32 {
		panic("block: particle id counter overflow")
	}
	return int32(end - int64(count))
}

// Compact compresses the live blocks and releases the ones left empty.
func (c *Container) Compact() (released int) {
	blocks := c.Blocks()
	Compress(blocks)
	for _, b := range blocks {
		if b.active == 0 {
			c.Release(b)
			released++
		}
	}
	if released > 0 {
		c.log.WithFields(logrus.Fields{"released": released, "blocks": c.Len()}).Debug("compacted")
	}
	return released
}
