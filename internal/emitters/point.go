package emitters

import (
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/geom"
	"github.com/san-kum/particlesim/internal/sim"
)

// Point emits particles from a single position into a cone around Direction.
type Point struct {
	Kind        string
	Position    attr.Float3
	Direction   attr.Float3
	Spread      float32
	Speed       float32
	SpeedJitter float32
	Appearance

	rate rate
}

func NewPoint(kind string, perSecond float32) *Point {
	return &Point{Kind: kind, Direction: attr.Float3{Y: 1}, rate: rate{PerSecond: perSecond}}
}

func (e *Point) Rate() float32     { return e.rate.PerSecond }
func (e *Point) SetRate(r float32) { e.rate.PerSecond = max(0, r) }

func (e *Point) Attributes(kind string, d *attr.Declaration) {
	if kind == e.Kind {
		declareLifetime(d, e.Appearance)
	}
}

func (e *Point) Emit(iface *sim.EmitterInterface) {
	span := iface.TimeSpan()
	rng := iface.Rand()
	n := e.rate.count(span.Duration)
	var b batch
	for i := 0; i < n; i++ {
		dir := geom.RandomInCone(rng, e.Direction, e.Spread)
		speed := e.Speed + e.SpeedJitter*(2*rng.Float32()-1)
		b.add(span.Interpolate(rng.Float32()), e.Position, dir.Scale(speed))
	}
	b.emit(iface.Allocator(), e.Kind, e.Appearance, rng)
}

// Burst emits Count particles once, at time At.
type Burst struct {
	Kind     string
	At       float32
	Count    int
	Position attr.Float3
	Speed    float32
	Appearance
}

func (e *Burst) Attributes(kind string, d *attr.Declaration) {
	if kind == e.Kind {
		declareLifetime(d, e.Appearance)
	}
}

func (e *Burst) Emit(iface *sim.EmitterInterface) {
	span := iface.TimeSpan()
	if e.At < span.Start || e.At >= span.End() {
		return
	}
	rng := iface.Rand()
	var b batch
	for i := 0; i < e.Count; i++ {
		b.add(e.At, e.Position, geom.RandomDirection(rng).Scale(e.Speed))
	}
	b.emit(iface.Allocator(), e.Kind, e.Appearance, rng)
}
