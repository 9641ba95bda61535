package emitters

import (
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/sim"
)

// Trail leaves particles of Kind behind moving particles, PerSecond per
// particle, spread along the segment each particle covers.
type Trail struct {
	Kind      string
	PerSecond float32
	Appearance
}

func (t *Trail) Listen(f *sim.ForwardingInterface) {
	attrs := f.Attributes()
	pos := attrs.Float3(sim.AttrPosition)
	off, ok := attr.TryGet[attr.Float3](f.Offsets(), sim.AttrPosition)
	if !ok {
		return
	}
	factors := f.TimeFactors()
	durations := f.Durations()
	end := f.EndTime()
	rng := f.Rand()

	var b batch
	for _, i := range f.Particles().Indices() {
		covered := factors[i] * durations[i]
		n := int(t.PerSecond*covered + rng.Float32())
		start := end - durations[i]
		for k := 0; k < n; k++ {
			u := rng.Float32()
			b.add(start+u*covered, pos[i].Add(off[i].Scale(u*factors[i])), attr.Float3{})
		}
	}
	b.emit(f.Allocator(), t.Kind, t.Appearance, rng)
}
