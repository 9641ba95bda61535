package emitters

import (
	"math/rand/v2"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/events"
	"github.com/san-kum/particlesim/internal/particles"
	"github.com/san-kum/particlesim/internal/sim"
)

// Appearance is what every emitted particle starts with.
type Appearance struct {
	Color attr.RGBAf
	Size  float32

	// Lifetime is written to the kind's lifetime attribute when positive.
	Lifetime       float32
	LifetimeJitter float32
}

// rate turns a per second rate into a whole count for one interval.
type rate struct {
	PerSecond float32
	carry     float32
}

func (r *rate) count(duration float32) int {
	want := r.PerSecond*duration + r.carry
	if want <= 0 {
		r.carry = 0
		return 0
	}
	n := int(want)
	r.carry = want - float32(n)
	return n
}

// batch accumulates the initial values of particles before they are allocated.
type batch struct {
	births     []float32
	positions  []attr.Float3
	velocities []attr.Float3
}

func (b *batch) add(birth float32, p, v attr.Float3) {
	b.births = append(b.births, birth)
	b.positions = append(b.positions, p)
	b.velocities = append(b.velocities, v)
}

func (b *batch) len() int { return len(b.births) }

// emit allocates the batch into kind and applies the appearance.
func (b *batch) emit(alloc *particles.Allocator, kind string, look Appearance, rng *rand.Rand) *particles.Sets {
	sets := alloc.Request(kind, b.len())
	if b.len() == 0 {
		return sets
	}
	sets.FillFloat(sim.AttrBirthTime, b.births)
	sets.FillFloat3(sim.AttrPosition, b.positions)
	sets.FillFloat3(sim.AttrVelocity, b.velocities)
	if look.Color != (attr.RGBAf{}) {
		particles.FillAll(sets, sim.AttrColor, look.Color)
	}
	if look.Size > 0 {
		particles.FillAll(sets, sim.AttrSize, look.Size)
	}
	if look.Lifetime > 0 && has(sets, events.LifetimeAttribute) {
		lifetimes := make([]float32, b.len())
		for i := range lifetimes {
			lifetimes[i] = look.Lifetime + look.LifetimeJitter*(2*rng.Float32()-1)
		}
		sets.FillFloat(events.LifetimeAttribute, lifetimes)
	}
	return sets
}

func has(s *particles.Sets, name string) bool {
	sets := s.Sets()
	return len(sets) > 0 && sets[0].Block().Schema().Has(name, attr.TypeFloat)
}

// declareLifetime adds the lifetime attribute to kind when look needs it.
func declareLifetime(d *attr.Declaration, look Appearance) {
	if look.Lifetime > 0 {
		d.AddFloat(events.LifetimeAttribute, look.Lifetime)
	}
}
