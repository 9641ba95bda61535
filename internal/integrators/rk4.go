package integrators

import (
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/sim"
)

// RK4 integrates position and velocity with the classic fourth order
// Runge-Kutta scheme.
type RK4 struct {
	forces  []Force
	offsets *attr.Schema
}

func NewRK4(forces ...Force) *RK4 {
	return &RK4{forces: forces, offsets: motionOffsets()}
}

func (r *RK4) OffsetAttributes() *attr.Schema { return r.offsets }

func (r *RK4) Integrate(iface *sim.IntegratorInterface) {
	m := viewMotion(iface)
	for _, i := range m.rows {
		m.dPos[i], m.dVel[i] = r.step(m.pos[i], m.vel[i], m.end-m.durations[i], m.durations[i])
	}
}

func (r *RK4) step(p, v attr.Float3, t, dt float32) (dp, dv attr.Float3) {
	half := 0.5 * dt

	k1p, k1v := v, Accelerate(r.forces, p, v, t)

	p2, v2 := p.Add(k1p.Scale(half)), v.Add(k1v.Scale(half))
	k2p, k2v := v2, Accelerate(r.forces, p2, v2, t+half)

	p3, v3 := p.Add(k2p.Scale(half)), v.Add(k2v.Scale(half))
	k3p, k3v := v3, Accelerate(r.forces, p3, v3, t+half)

	p4, v4 := p.Add(k3p.Scale(dt)), v.Add(k3v.Scale(dt))
	k4p, k4v := v4, Accelerate(r.forces, p4, v4, t+dt)

	dt6 := dt / 6
	dp = k1p.Add(k2p.Scale(2)).Add(k3p.Scale(2)).Add(k4p).Scale(dt6)
	dv = k1v.Add(k2v.Scale(2)).Add(k3v.Scale(2)).Add(k4v).Scale(dt6)
	return dp, dv
}
