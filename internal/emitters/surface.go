package emitters

import (
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/geom"
	"github.com/san-kum/particlesim/internal/sim"
)

// Surface emits particles uniformly over a mesh, launched along the
// triangle normal. Rate is per unit of area when Density is set.
type Surface struct {
	Kind    string
	Sampler *geom.SurfaceSampler
	Speed   float32
	Spread  float32
	Density bool
	Appearance

	rate rate
}

func NewSurface(kind string, mesh *geom.Mesh, perSecond float32) *Surface {
	return &Surface{Kind: kind, Sampler: geom.NewSurfaceSampler(mesh), rate: rate{PerSecond: perSecond}}
}

func (e *Surface) Rate() float32     { return e.rate.PerSecond }
func (e *Surface) SetRate(r float32) { e.rate.PerSecond = max(0, r) }

func (e *Surface) Attributes(kind string, d *attr.Declaration) {
	if kind == e.Kind {
		declareLifetime(d, e.Appearance)
	}
}

func (e *Surface) Emit(iface *sim.EmitterInterface) {
	span := iface.TimeSpan()
	rng := iface.Rand()
	duration := span.Duration
	if e.Density {
		duration *= e.Sampler.TotalArea()
	}
	n := e.rate.count(duration)
	var b batch
	for i := 0; i < n; i++ {
		p, normal, ok := e.Sampler.Sample(rng)
		if !ok {
			break
		}
		dir := geom.RandomInCone(rng, normal, e.Spread)
		b.add(span.Interpolate(rng.Float32()), p, dir.Scale(e.Speed))
	}
	b.emit(iface.Allocator(), e.Kind, e.Appearance, rng)
}
