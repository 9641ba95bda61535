package particles

import (
	"fmt"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/block"
)

// PositionAttribute is the column read back for display.
const PositionAttribute = "Position"

// State maps particle kinds to the containers that hold them.
type State struct {
	blockSize  int
	containers map[string]*block.Container
	kinds      []string
}

func NewState(blockSize int) *State {
	return &State{
		blockSize:  blockSize,
		containers: make(map[string]*block.Container),
	}
}

func (s *State) BlockSize() int { return s.blockSize }

// Kinds lists particle kinds in the order they were added.
func (s *State) Kinds() []string {
	out := make([]string, len(s.kinds))
	copy(out, s.kinds)
	return out
}

func (s *State) Container(kind string) (*block.Container, bool) {
	c, ok := s.containers[kind]
	return c, ok
}

// MustContainer panics for kinds that were never added.
func (s *State) MustContainer(kind string) *block.Container {
	c, ok := s.containers[kind]
	if !ok {
		panic(fmt.Sprintf("particles: unknown particle kind %q", kind))
	}
	return c
}

// Ensure creates the container for kind, or migrates the existing one to
// schema.
func (s *State) Ensure(kind string, schema *attr.Schema) *block.Container {
	c, ok := s.containers[kind]
	if !ok {
		c = block.NewContainer(schema, s.blockSize)
		s.containers[kind] = c
		s.kinds = append(s.kinds, kind)
		return c
	}
	c.UpdateSchema(schema)
	return c
}

// ParticleCount sums active particles over every kind.
func (s *State) ParticleCount() int {
	n := 0
	for _, kind := range s.kinds {
		n += s.containers[kind].CountActive()
	}
	return n
}

// Positions copies particle positions into dst kind by kind, in block then
// slot order, and returns how many were written. The order changes between
// steps as particles die and blocks are compacted.
func (s *State) Positions(dst []attr.Float3) int {
	n := 0
	for _, kind := range s.kinds {
		for _, b := range s.containers[kind].Blocks() {
			pos, ok := b.ActiveSlice().TryFloat3(PositionAttribute)
			if !ok {
				continue
			}
			n += copy(dst[n:], pos)
			if n == len(dst) {
				return n
			}
		}
	}
	return n
}
