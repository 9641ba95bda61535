package events

import (
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/sim"
)

// LifetimeAttribute is the per particle lifetime read by AgeReached.
const LifetimeAttribute = "Lifetime"

// AgeReached kills particles once their age reaches their lifetime.
type AgeReached struct {
	// Lifetime is the default for particles whose emitter sets none.
	Lifetime float32
}

func NewAgeReached(lifetime float32) *AgeReached { return &AgeReached{Lifetime: lifetime} }

func (e *AgeReached) Attributes(d *attr.Declaration) {
	d.AddFloat(LifetimeAttribute, e.Lifetime)
}

func (e *AgeReached) Filter(f *sim.EventFilterInterface) {
	attrs := f.Attributes()
	births := attrs.Float(sim.AttrBirthTime)
	lifetimes := attrs.Float(LifetimeAttribute)
	durations := f.Durations()
	end := f.EndTime()
	for _, i := range f.Particles().Indices() {
		if tf, ok := timeFactor(births[i]+lifetimes[i], end, durations[i]); ok {
			f.TriggerParticle(i, tf)
		}
	}
}

func (e *AgeReached) Execute(x *sim.EventExecuteInterface) {
	for _, i := range x.Particles().Indices() {
		x.Kill(i)
	}
}

// timeFactor locates deadline inside the interval [end-duration, end].
// Deadlines already passed trigger immediately.
func timeFactor(deadline, end, duration float32) (float32, bool) {
	if deadline > end || duration <= 0 {
		return 0, false
	}
	start := end - duration
	if deadline <= start {
		return 0, true
	}
	return (deadline - start) / duration, true
}
