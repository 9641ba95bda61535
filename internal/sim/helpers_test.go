package sim

import (
	"sync"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/particles"
)

// velocityIntegrator moves Position by Velocity over each row's duration.
type velocityIntegrator struct {
	offsets *attr.Schema
}

func newVelocityIntegrator() *velocityIntegrator {
	d := attr.NewDeclaration()
	d.AddFloat3(AttrPosition, attr.Float3{})
	return &velocityIntegrator{offsets: d.Freeze()}
}

func (v *velocityIntegrator) OffsetAttributes() *attr.Schema { return v.offsets }

func (v *velocityIntegrator) Integrate(iface *IntegratorInterface) {
	vel := iface.Attributes().Float3(AttrVelocity)
	off := iface.Offsets().Float3(AttrPosition)
	dur := iface.Durations()
	for _, i := range iface.Particles().Indices() {
		off[i] = vel[i].Scale(dur[i])
	}
}

type funcEvent struct {
	filter  func(*EventFilterInterface)
	execute func(*EventExecuteInterface)
	size    int
}

func (e *funcEvent) Filter(f *EventFilterInterface) { e.filter(f) }
func (e *funcEvent) StorageSize() int               { return e.size }

func (e *funcEvent) Execute(x *EventExecuteInterface) {
	if e.execute != nil {
		e.execute(x)
	}
}

// triggerAll fires for every row at the same time factor.
func triggerAll(tf float32) func(*EventFilterInterface) {
	return func(f *EventFilterInterface) {
		for _, i := range f.Particles().Indices() {
			f.TriggerParticle(i, tf)
		}
	}
}

type funcEmitter func(*EmitterInterface)

func (e funcEmitter) Emit(iface *EmitterInterface) { e(iface) }

type funcListener func(*ForwardingInterface)

func (l funcListener) Listen(iface *ForwardingInterface) { l(iface) }

// recorder collects values from concurrent callbacks.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

func (r *recorder[T]) add(v ...T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v...)
}

func (r *recorder[T]) all() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

func movingType(name string, events ...Event) *ParticleType {
	return &ParticleType{Name: name, Integrator: newVelocityIntegrator(), Events: events}
}

// seed places n particles of kind with the given velocity.
func seed(s *Simulation, kind string, n int, vel attr.Float3) {
	sets := particles.NewAllocator(s.State()).Request(kind, n)
	particles.FillAll(sets, AttrVelocity, vel)
}

func positions(s *Simulation) []attr.Float3 {
	out := make([]attr.Float3, s.ParticleCount())
	s.Positions(out)
	return out
}
