package control

import (
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/sim"
)

// Throttled is an emitter whose rate can be changed between steps.
type Throttled interface {
	sim.Emitter
	Rate() float32
	SetRate(perSecond float32)
}

// Governor scales an emitter's rate so the live count of its kind settles
// near Target. It observes step stats to learn the count, so it must be
// registered as an observer of the simulation it emits into.
type Governor struct {
	Kind   string
	Target int

	inner Throttled
	base  float32
	pid   *PID
	live  int
}

// maxBoost bounds the rate at this multiple of the configured one.
const maxBoost = 4

func NewGovernor(inner Throttled, kind string, target int) *Governor {
	pid := NewPID(1, 0.5, 0, 1)
	pid.Min, pid.Max = -1, maxBoost-1
	return &Governor{Kind: kind, Target: target, inner: inner, base: inner.Rate(), pid: pid}
}

func (g *Governor) Inner() Throttled { return g.inner }

func (g *Governor) Attributes(kind string, d *attr.Declaration) {
	if dec, ok := g.inner.(sim.EmitterDeclarer); ok {
		dec.Attributes(kind, d)
	}
}

func (g *Governor) OnStep(stats sim.StepStats) {
	for _, k := range stats.Kinds {
		if k.Kind == g.Kind {
			g.live = k.Particles
			return
		}
	}
	g.live = 0
}

func (g *Governor) Emit(iface *sim.EmitterInterface) {
	// The count is normalized by Target so one set of gains fits any size.
	u := g.pid.Update(float64(g.live)/float64(g.Target), float64(iface.TimeSpan().Start))
	g.inner.SetRate(g.base * float32(1+u))
	g.inner.Emit(iface)
}
