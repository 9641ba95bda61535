package integrators

import (
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/sim"
)

// motionOffsets is the offset schema shared by every integrator here.
func motionOffsets() *attr.Schema {
	d := attr.NewDeclaration()
	d.AddFloat3(sim.AttrPosition, attr.Float3{})
	d.AddFloat3(sim.AttrVelocity, attr.Float3{})
	return d.Freeze()
}

// motion holds the per call views integrators read and write.
type motion struct {
	pos, vel   []attr.Float3
	dPos, dVel []attr.Float3
	durations  []float32
	rows       []int
	end        float32
}

func viewMotion(iface *sim.IntegratorInterface) motion {
	attrs, off := iface.Attributes(), iface.Offsets()
	return motion{
		pos:       attrs.Float3(sim.AttrPosition),
		vel:       attrs.Float3(sim.AttrVelocity),
		dPos:      off.Float3(sim.AttrPosition),
		dVel:      off.Float3(sim.AttrVelocity),
		durations: iface.Durations(),
		rows:      iface.Particles().Indices(),
		end:       iface.EndTime(),
	}
}

// Euler is semi-implicit Euler: velocity is updated first and the new
// velocity moves the particle.
type Euler struct {
	forces  []Force
	offsets *attr.Schema
}

func NewEuler(forces ...Force) *Euler {
	return &Euler{forces: forces, offsets: motionOffsets()}
}

func (e *Euler) OffsetAttributes() *attr.Schema { return e.offsets }

func (e *Euler) Integrate(iface *sim.IntegratorInterface) {
	m := viewMotion(iface)
	for _, i := range m.rows {
		dt := m.durations[i]
		a := Accelerate(e.forces, m.pos[i], m.vel[i], m.end-dt)
		m.dVel[i] = a.Scale(dt)
		m.dPos[i] = m.vel[i].Add(m.dVel[i]).Scale(dt)
	}
}
