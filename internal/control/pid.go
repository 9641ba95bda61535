package control

// PID is a discrete PID controller driving a measurement toward Target.
// Output is clamped to [Min, Max] when Max > Min, and the integral stops
// accumulating while the output is saturated.
type PID struct {
	Kp, Ki, Kd float64
	Target     float64
	Min, Max   float64

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		first:  true,
	}
}

// Update returns the control output for measured at time t.
func (p *PID) Update(measured, t float64) float64 {
	err := p.Target - measured

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.clamp(p.Kp * err)
	}

	dt := t - p.prevT
	if dt <= 0 {
		return p.clamp(p.Kp*err + p.Ki*p.integral)
	}
	integral := p.integral + err*dt
	derivative := (err - p.prevErr) / dt
	u := p.Kp*err + p.Ki*integral + p.Kd*derivative

	p.prevErr = err
	p.prevT = t
	out := p.clamp(u)
	if out == u {
		p.integral = integral
	}
	return out
}

func (p *PID) clamp(u float64) float64 {
	if p.Max <= p.Min {
		return u
	}
	return max(p.Min, min(p.Max, u))
}

// Reset clears the controller history.
func (p *PID) Reset() {
	p.integral, p.prevErr, p.prevT = 0, 0, 0
	p.first = true
}
