package events

import (
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/geom"
	"github.com/san-kum/particlesim/internal/particles"
	"github.com/san-kum/particlesim/internal/sim"
)

// FuseAttribute is the per particle age at which Explode fires.
const FuseAttribute = "Fuse"

// Explode replaces a particle with Count children of Kind once its age
// reaches its fuse. Children start at the parent's position with a random
// spherical velocity plus a share of the parent's velocity.
type Explode struct {
	Kind    string
	Count   int
	Speed   float32
	Inherit float32
	Fuse    float32
	// Lifetime is given to children when their kind carries a lifetime.
	Lifetime float32
}

func (e *Explode) Attributes(d *attr.Declaration) {
	d.AddFloat(FuseAttribute, e.Fuse)
}

func (e *Explode) Filter(f *sim.EventFilterInterface) {
	attrs := f.Attributes()
	births := attrs.Float(sim.AttrBirthTime)
	fuses := attrs.Float(FuseAttribute)
	durations := f.Durations()
	end := f.EndTime()
	for _, i := range f.Particles().Indices() {
		if tf, ok := timeFactor(births[i]+fuses[i], end, durations[i]); ok {
			f.TriggerParticle(i, tf)
		}
	}
}

func (e *Explode) Execute(x *sim.EventExecuteInterface) {
	rows := x.Particles().Indices()
	attrs := x.Attributes()
	pos := attrs.Float3(sim.AttrPosition)
	vel := attrs.Float3(sim.AttrVelocity)
	colors := attrs.ColorFloat(sim.AttrColor)
	now := x.CurrentTimes()
	rng := x.Rand()

	if e.Count > 0 {
		total := len(rows) * e.Count
		births := make([]float32, 0, total)
		positions := make([]attr.Float3, 0, total)
		velocities := make([]attr.Float3, 0, total)
		tints := make([]attr.RGBAf, 0, total)
		for _, i := range rows {
			for j := 0; j < e.Count; j++ {
				births = append(births, now[i])
				positions = append(positions, pos[i])
				v := geom.RandomDirection(rng).Scale(e.Speed * (0.5 + 0.5*rng.Float32()))
				velocities = append(velocities, v.Add(vel[i].Scale(e.Inherit)))
				tints = append(tints, colors[i])
			}
		}
		children := x.Allocator().Request(e.Kind, total)
		children.FillFloat(sim.AttrBirthTime, births)
		children.FillFloat3(sim.AttrPosition, positions)
		children.FillFloat3(sim.AttrVelocity, velocities)
		particles.Fill(children, sim.AttrColor, tints)
		if e.Lifetime > 0 && hasAttribute(children, LifetimeAttribute) {
			particles.FillAll(children, LifetimeAttribute, e.Lifetime)
		}
	}
	for _, i := range rows {
		x.Kill(i)
	}
}

func hasAttribute(s *particles.Sets, name string) bool {
	sets := s.Sets()
	if len(sets) == 0 {
		return false
	}
	return sets[0].Block().Schema().Has(name, attr.TypeFloat)
}
