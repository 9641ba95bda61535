package sim

import (
	"fmt"

	"github.com/san-kum/particlesim/internal/attr"
)

// ParticleType is one kind of particle and the behaviors attached to it.
// Events are resolved in the order they are listed.
type ParticleType struct {
	Name       string
	Integrator Integrator
	Events     []Event
	Listeners  []ForwardingListener

	// Attributes are extra attributes the type carries beyond those its
	// behaviors declare.
	Attributes *attr.Declaration
}

// StepDescription is everything the solver needs to advance a simulation.
type StepDescription struct {
	Types    []*ParticleType
	Emitters []Emitter

	// MaxEventIterations bounds how many events a particle can handle in a
	// single step. Zero means 1.
	MaxEventIterations int

	// MaxSpawnGenerations bounds how many rounds of newborn particles are
	// simulated from birth within a single step. Zero means 16.
	MaxSpawnGenerations int
}

const (
	defaultEventIterations  = 1
	defaultSpawnGenerations = 16
)

func (d *StepDescription) eventIterations() int {
	if d.MaxEventIterations <= 0 {
		return defaultEventIterations
	}
	return d.MaxEventIterations
}

func (d *StepDescription) spawnGenerations() int {
	if d.MaxSpawnGenerations <= 0 {
		return defaultSpawnGenerations
	}
	return d.MaxSpawnGenerations
}

// Type looks up a particle type by name.
func (d *StepDescription) Type(name string) (*ParticleType, bool) {
	for _, t := range d.Types {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Validate checks the description for structural problems.
func (d *StepDescription) Validate() error {
	if len(d.Types) == 0 {
		return ErrNoParticleTypes
	}
	seen := make(map[string]bool, len(d.Types))
	for _, t := range d.Types {
		if seen[t.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateType, t.Name)
		}
		seen[t.Name] = true
		if t.Integrator == nil {
			return fmt.Errorf("%w: %q", ErrMissingIntegrator, t.Name)
		}
		for _, ev := range t.Events {
			if st, ok := ev.(EventStorage); ok && st.StorageSize() > MaxEventStorage {
				return fmt.Errorf("%w: %T needs %d bytes", ErrEventStorage, ev, st.StorageSize())
			}
		}
	}
	schemas := d.Schemas()
	for _, t := range d.Types {
		offsets := t.Integrator.OffsetAttributes()
		for i := 0; i < offsets.Size(); i++ {
			if !schemas[t.Name].Has(offsets.Name(i), attr.TypeFloat3) {
				return fmt.Errorf("%w: %q on %q", ErrInvalidOffset, offsets.Name(i), t.Name)
			}
		}
	}
	return nil
}

// Schemas builds the attribute schema of every particle type.
func (d *StepDescription) Schemas() map[string]*attr.Schema {
	decls := make(map[string]*attr.Declaration, len(d.Types))
	for _, t := range d.Types {
		decl := builtinAttributes()
		decl.MergeSchema(t.Integrator.OffsetAttributes())
		declare(decl, t.Integrator)
		for _, ev := range t.Events {
			declare(decl, ev)
		}
		for _, l := range t.Listeners {
			declare(decl, l)
		}
		if t.Attributes != nil {
			decl.Merge(t.Attributes)
		}
		decls[t.Name] = decl
	}
	for _, em := range d.Emitters {
		ed, ok := em.(EmitterDeclarer)
		if !ok {
			continue
		}
		for _, t := range d.Types {
			ed.Attributes(t.Name, decls[t.Name])
		}
	}
	schemas := make(map[string]*attr.Schema, len(decls))
	for name, decl := range decls {
		schemas[name] = decl.Freeze()
	}
	return schemas
}

func builtinAttributes() *attr.Declaration {
	d := attr.NewDeclaration()
	d.AddInt32(AttrID, 0)
	d.AddByte(AttrKillState, 0)
	d.AddFloat(AttrBirthTime, 0)
	d.AddFloat3(AttrPosition, attr.Float3{})
	d.AddFloat3(AttrVelocity, attr.Float3{})
	d.AddFloat(AttrSize, 0.05)
	d.AddColorFloat(AttrColor, attr.RGBAf{R: 1, G: 1, B: 1, A: 1})
	return d
}

func declare(d *attr.Declaration, v any) {
	if dd, ok := v.(Declarer); ok {
		dd.Attributes(d)
	}
}
