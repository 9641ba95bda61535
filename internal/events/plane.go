package events

import (
	"encoding/binary"
	"math"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/geom"
	"github.com/san-kum/particlesim/internal/sim"
)

// planeSlop is how far below the plane a particle can start and still collide.
const planeSlop = 1e-2

// PlaneCollision bounces particles off an infinite plane. The plane normal
// is stored with each trigger so Execute does not depend on the event's
// fields changing between phases.
type PlaneCollision struct {
	Point       attr.Float3
	Normal      attr.Float3
	Restitution float32
	Friction    float32
	// Kill removes particles on contact instead of bouncing them.
	Kill bool

	// SpawnKind, when set, receives SpawnCount particles per contact,
	// launched around the normal at SpawnSpeed.
	SpawnKind  string
	SpawnCount int
	SpawnSpeed float32
}

func NewPlaneCollision(point, normal attr.Float3, restitution float32) *PlaneCollision {
	return &PlaneCollision{Point: point, Normal: normal.Normalized(), Restitution: restitution}
}

func (e *PlaneCollision) StorageSize() int { return 12 }

func (e *PlaneCollision) Filter(f *sim.EventFilterInterface) {
	attrs := f.Attributes()
	pos := attrs.Float3(sim.AttrPosition)
	off, ok := attr.TryGet[attr.Float3](f.Offsets(), sim.AttrPosition)
	if !ok {
		return
	}
	n := e.Normal.Normalized()
	for _, i := range f.Particles().Indices() {
		s0 := pos[i].Sub(e.Point).Dot(n)
		s1 := s0 + off[i].Dot(n)
		if s1 >= 0 || s0 < -planeSlop {
			continue
		}
		var tf float32
		if s0 > 0 {
			tf = s0 / (s0 - s1)
		}
		writeFloat3(f.TriggerParticle(i, tf), n)
	}
}

func (e *PlaneCollision) Execute(x *sim.EventExecuteInterface) {
	attrs := x.Attributes()
	pos := attrs.Float3(sim.AttrPosition)
	vel := attrs.Float3(sim.AttrVelocity)
	if e.SpawnKind != "" && e.SpawnCount > 0 {
		e.splash(x, pos)
	}
	for _, i := range x.Particles().Indices() {
		if e.Kill {
			x.Kill(i)
			continue
		}
		n := readFloat3(x.Storage(i))
		if s := pos[i].Sub(e.Point).Dot(n); s < 0 {
			pos[i] = pos[i].Add(n.Scale(-s))
		}
		vn := vel[i].Dot(n)
		if vn >= 0 {
			continue
		}
		normal := n.Scale(vn)
		tangent := vel[i].Sub(normal).Scale(1 - e.Friction)
		vel[i] = tangent.Sub(normal.Scale(e.Restitution))
	}
}

func (e *PlaneCollision) splash(x *sim.EventExecuteInterface, pos []attr.Float3) {
	rows := x.Particles().Indices()
	now := x.CurrentTimes()
	rng := x.Rand()
	total := len(rows) * e.SpawnCount
	births := make([]float32, 0, total)
	positions := make([]attr.Float3, 0, total)
	velocities := make([]attr.Float3, 0, total)
	for _, i := range rows {
		n := readFloat3(x.Storage(i))
		for j := 0; j < e.SpawnCount; j++ {
			births = append(births, now[i])
			positions = append(positions, pos[i])
			velocities = append(velocities, geom.RandomInCone(rng, n, 1).Scale(e.SpawnSpeed))
		}
	}
	children := x.Allocator().Request(e.SpawnKind, total)
	children.FillFloat(sim.AttrBirthTime, births)
	children.FillFloat3(sim.AttrPosition, positions)
	children.FillFloat3(sim.AttrVelocity, velocities)
}

func writeFloat3(b []byte, v attr.Float3) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
}

func readFloat3(b []byte) attr.Float3 {
	return attr.Float3{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}
