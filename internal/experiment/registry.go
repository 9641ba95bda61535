package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/control"
	"github.com/san-kum/particlesim/internal/emitters"
	"github.com/san-kum/particlesim/internal/events"
	"github.com/san-kum/particlesim/internal/geom"
	"github.com/san-kum/particlesim/internal/integrators"
	"github.com/san-kum/particlesim/internal/sim"
)

// Registry maps config type names to behavior constructors.
type Registry struct {
	integrators map[string]func(forces []integrators.Force) sim.Integrator
	forces      map[string]func(config.ForceConfig) integrators.Force
	events      map[string]func(config.EventConfig) sim.Event
	emitters    map[string]func(config.EmitterConfig) (sim.Emitter, error)
	meshes      map[string]func(config.MeshConfig) *geom.Mesh
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func([]integrators.Force) sim.Integrator),
		forces:      make(map[string]func(config.ForceConfig) integrators.Force),
		events:      make(map[string]func(config.EventConfig) sim.Event),
		emitters:    make(map[string]func(config.EmitterConfig) (sim.Emitter, error)),
		meshes:      make(map[string]func(config.MeshConfig) *geom.Mesh),
	}

	r.integrators["euler"] = func(f []integrators.Force) sim.Integrator { return integrators.NewEuler(f...) }
	r.integrators["verlet"] = func(f []integrators.Force) sim.Integrator { return integrators.NewVerlet(f...) }
	r.integrators["rk4"] = func(f []integrators.Force) sim.Integrator { return integrators.NewRK4(f...) }

	r.forces["gravity"] = func(c config.ForceConfig) integrators.Force {
		return integrators.Gravity{G: vec(c.Vector)}
	}
	r.forces["drag"] = func(c config.ForceConfig) integrators.Force {
		return integrators.Drag{Coefficient: c.Coefficient}
	}
	r.forces["spring"] = func(c config.ForceConfig) integrators.Force {
		return integrators.Spring{Anchor: vec(c.Anchor), Stiffness: c.Coefficient}
	}
	r.forces["turbulence"] = func(c config.ForceConfig) integrators.Force {
		return integrators.Turbulence{Strength: c.Strength, Scale: c.Scale, Seed: c.Seed}
	}

	r.events["age_reached"] = func(c config.EventConfig) sim.Event {
		return events.NewAgeReached(c.Lifetime)
	}
	r.events["plane_collision"] = func(c config.EventConfig) sim.Event {
		e := events.NewPlaneCollision(vec(c.Point), vec(c.Normal), c.Restitution)
		e.Friction = c.Friction
		e.Kill = c.Kill
		e.SpawnKind, e.SpawnCount, e.SpawnSpeed = c.Kind, c.Count, c.Speed
		return e
	}
	r.events["explode"] = func(c config.EventConfig) sim.Event {
		return &events.Explode{
			Kind:     c.Kind,
			Count:    c.Count,
			Speed:    c.Speed,
			Inherit:  c.Inherit,
			Fuse:     c.Fuse,
			Lifetime: c.Lifetime,
		}
	}

	r.meshes["grid"] = func(c config.MeshConfig) *geom.Mesh {
		return geom.Grid(orDefault(c.Size, 1), c.Divisions).Transform(1, vec(c.Offset))
	}
	r.meshes["sphere"] = func(c config.MeshConfig) *geom.Mesh {
		rings := max(c.Divisions, 4)
		return geom.UVSphere(orDefault(c.Radius, 1), 2*rings, rings).Transform(1, vec(c.Offset))
	}

	r.emitters["point"] = func(c config.EmitterConfig) (sim.Emitter, error) {
		e := emitters.NewPoint(c.Kind, c.Rate)
		e.Position = vec(c.Position)
		if c.Direction != (config.Vec3{}) {
			e.Direction = vec(c.Direction)
		}
		e.Spread, e.Speed, e.SpeedJitter = c.Spread, c.Speed, c.SpeedJitter
		e.Appearance = appearance(c)
		return e, nil
	}
	r.emitters["burst"] = func(c config.EmitterConfig) (sim.Emitter, error) {
		return &emitters.Burst{
			Kind:       c.Kind,
			At:         c.At,
			Count:      c.Count,
			Position:   vec(c.Position),
			Speed:      c.Speed,
			Appearance: appearance(c),
		}, nil
	}
	r.emitters["surface"] = func(c config.EmitterConfig) (sim.Emitter, error) {
		build, ok := r.meshes[c.Mesh.Type]
		if !ok {
			return nil, fmt.Errorf("%w: mesh %q", config.ErrUnknownType, c.Mesh.Type)
		}
		mesh := build(c.Mesh)
		if err := mesh.Validate(); err != nil {
			return nil, err
		}
		e := emitters.NewSurface(c.Kind, mesh, c.Rate)
		e.Speed, e.Spread, e.Density = c.Speed, c.Spread, c.Density
		e.Appearance = appearance(c)
		return e, nil
	}

	return r
}

// Build turns a validated config into a step description.
func (r *Registry) Build(cfg *config.Config) (*sim.StepDescription, error) {
	desc := &sim.StepDescription{
		MaxEventIterations:  cfg.MaxEventIterations,
		MaxSpawnGenerations: cfg.MaxSpawnGenerations,
	}
	for _, k := range cfg.Kinds {
		pt, err := r.buildKind(k)
		if err != nil {
			return nil, err
		}
		desc.Types = append(desc.Types, pt)
	}
	for _, ec := range cfg.Emitters {
		build, ok := r.emitters[ec.Type]
		if !ok {
			return nil, fmt.Errorf("%w: emitter %q", config.ErrUnknownType, ec.Type)
		}
		em, err := build(ec)
		if err != nil {
			return nil, err
		}
		if ec.TargetParticles > 0 {
			throttled, ok := em.(control.Throttled)
			if !ok {
				return nil, fmt.Errorf("%w: emitter %q has no adjustable rate", config.ErrInvalid, ec.Type)
			}
			em = control.NewGovernor(throttled, ec.Kind, ec.TargetParticles)
		}
		desc.Emitters = append(desc.Emitters, em)
	}
	return desc, nil
}

func (r *Registry) buildKind(k config.KindConfig) (*sim.ParticleType, error) {
	var forces []integrators.Force
	for _, fc := range k.Forces {
		build, ok := r.forces[fc.Type]
		if !ok {
			return nil, fmt.Errorf("%w: force %q", config.ErrUnknownType, fc.Type)
		}
		forces = append(forces, build(fc))
	}
	name := k.Integrator
	if name == "" {
		name = "euler"
	}
	integ, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: integrator %q", config.ErrUnknownType, name)
	}
	pt := &sim.ParticleType{Name: k.Name, Integrator: integ(forces)}

	for _, ec := range k.Events {
		build, ok := r.events[ec.Type]
		if !ok {
			return nil, fmt.Errorf("%w: event %q", config.ErrUnknownType, ec.Type)
		}
		pt.Events = append(pt.Events, build(ec))
	}
	for _, tc := range k.Trails {
		pt.Listeners = append(pt.Listeners, &emitters.Trail{
			Kind:      tc.Kind,
			PerSecond: tc.Rate,
			Appearance: emitters.Appearance{
				Color:    color(tc.Color),
				Size:     tc.Size,
				Lifetime: tc.Lifetime,
			},
		})
	}
	if len(k.Attributes) > 0 {
		decl := attr.NewDeclaration()
		for _, ac := range k.Attributes {
			t, ok := attr.ParseType(ac.Type)
			if !ok {
				return nil, fmt.Errorf("%w: attribute type %q", config.ErrUnknownType, ac.Type)
			}
			decl.Add(ac.Name, t)
		}
		pt.Attributes = decl
	}
	return pt, nil
}

func (r *Registry) ListIntegrators() []string { return keys(r.integrators) }
func (r *Registry) ListForces() []string      { return keys(r.forces) }
func (r *Registry) ListEvents() []string      { return keys(r.events) }
func (r *Registry) ListEmitters() []string    { return keys(r.emitters) }
func (r *Registry) ListMeshes() []string      { return keys(r.meshes) }

func keys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func vec(v config.Vec3) attr.Float3 { return attr.Float3{X: v.X, Y: v.Y, Z: v.Z} }

func color(c config.Color) attr.RGBAf { return attr.RGBAf{R: c.R, G: c.G, B: c.B, A: c.A} }

func appearance(c config.EmitterConfig) emitters.Appearance {
	return emitters.Appearance{
		Color:          color(c.Color),
		Size:           c.Size,
		Lifetime:       c.Lifetime,
		LifetimeJitter: c.LifetimeJitter,
	}
}

func orDefault(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}
