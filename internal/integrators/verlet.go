package integrators

import (
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/sim"
)

// Verlet is velocity Verlet. Forces are evaluated at the start and at the
// predicted end of each row's duration.
type Verlet struct {
	forces  []Force
	offsets *attr.Schema
}

func NewVerlet(forces ...Force) *Verlet {
	return &Verlet{forces: forces, offsets: motionOffsets()}
}

func (v *Verlet) OffsetAttributes() *attr.Schema { return v.offsets }

func (v *Verlet) Integrate(iface *sim.IntegratorInterface) {
	m := viewMotion(iface)
	for _, i := range m.rows {
		dt := m.durations[i]
		t0 := m.end - dt
		p0, v0 := m.pos[i], m.vel[i]

		a0 := Accelerate(v.forces, p0, v0, t0)
		dp := v0.Scale(dt).Add(a0.Scale(0.5 * dt * dt))
		a1 := Accelerate(v.forces, p0.Add(dp), v0.Add(a0.Scale(dt)), m.end)

		m.dPos[i] = dp
		m.dVel[i] = a0.Add(a1).Scale(0.5 * dt)
	}
}
