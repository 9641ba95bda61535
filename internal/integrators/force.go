package integrators

import (
	"math"

	"github.com/san-kum/particlesim/internal/attr"
)

// Force contributes an acceleration to a particle at position p moving with
// velocity v at time t. Forces are shared between workers and must not keep
// mutable state.
type Force interface {
	Acceleration(p, v attr.Float3, t float32) attr.Float3
}

// Gravity is a constant acceleration.
type Gravity struct {
	G attr.Float3
}

func (g Gravity) Acceleration(_, _ attr.Float3, _ float32) attr.Float3 { return g.G }

// Drag decelerates proportionally to velocity.
type Drag struct {
	Coefficient float32
}

func (d Drag) Acceleration(_, v attr.Float3, _ float32) attr.Float3 {
	return v.Scale(-d.Coefficient)
}

// Spring pulls towards Anchor with a linear restoring force.
type Spring struct {
	Anchor    attr.Float3
	Stiffness float32
}

func (s Spring) Acceleration(p, _ attr.Float3, _ float32) attr.Float3 {
	return s.Anchor.Sub(p).Scale(s.Stiffness)
}

// Turbulence is a smooth pseudo random acceleration field that drifts with time.
type Turbulence struct {
	Strength float32
	Scale    float32
	Seed     uint32
}

func (tb Turbulence) Acceleration(p, _ attr.Float3, t float32) attr.Float3 {
	scale := tb.Scale
	if scale == 0 {
		scale = 1
	}
	q := p.Scale(1 / scale)
	return attr.Float3{
		X: tb.Strength * noise(q.X+t, q.Y, q.Z, tb.Seed),
		Y: tb.Strength * noise(q.X, q.Y+t, q.Z, tb.Seed+1),
		Z: tb.Strength * noise(q.X, q.Y, q.Z+t, tb.Seed+2),
	}
}

// Accelerate sums the acceleration of all forces.
func Accelerate(forces []Force, p, v attr.Float3, t float32) attr.Float3 {
	var a attr.Float3
	for _, f := range forces {
		a = a.Add(f.Acceleration(p, v, t))
	}
	return a
}

// noise is trilinear value noise in [-1, 1].
func noise(x, y, z float32, seed uint32) float32 {
	fx, fy, fz := floor(x), floor(y), floor(z)
	ix, iy, iz := int32(fx), int32(fy), int32(fz)
	tx, ty, tz := smooth(x-fx), smooth(y-fy), smooth(z-fz)

	c := func(dx, dy, dz int32) float32 {
		return lattice(ix+dx, iy+dy, iz+dz, seed)
	}
	x00 := lerp(c(0, 0, 0), c(1, 0, 0), tx)
	x10 := lerp(c(0, 1, 0), c(1, 1, 0), tx)
	x01 := lerp(c(0, 0, 1), c(1, 0, 1), tx)
	x11 := lerp(c(0, 1, 1), c(1, 1, 1), tx)
	return lerp(lerp(x00, x10, ty), lerp(x01, x11, ty), tz)
}

func lattice(x, y, z int32, seed uint32) float32 {
	h := uint32(x)*0x8da6b343 ^ uint32(y)*0xd8163841 ^ uint32(z)*0xcb1ab31f ^ seed*0x165667b1
	h ^= h >> 15
	h *= 0x2c1b3c6d
	h ^= h >> 12
	return float32(h&0xffff)/32767.5 - 1
}

func floor(v float32) float32      { return float32(math.Floor(float64(v))) }
func smooth(t float32) float32     { return t * t * (3 - 2*t) }
func lerp(a, b, t float32) float32 { return a + (b-a)*t }
