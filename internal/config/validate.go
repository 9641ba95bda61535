package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrInvalid     = errors.New("config: invalid value")
	ErrUnknownKind = errors.New("config: unknown kind")
	ErrUnknownType = errors.New("config: unknown type")
)

var (
	IntegratorTypes = []string{"euler", "verlet", "rk4"}
	ForceTypes      = []string{"gravity", "drag", "spring", "turbulence"}
	EventTypes      = []string{"age_reached", "plane_collision", "explode"}
	EmitterTypes    = []string{"point", "burst", "surface"}
	MeshTypes       = []string{"grid", "sphere"}
	AttributeTypes  = []string{"byte", "int32", "float", "float2", "float3", "color_byte", "color_float"}
)

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(err error, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{err}, args...)...))
	}

	if c.Dt <= 0 {
		bad(ErrInvalid, "dt %v must be positive", c.Dt)
	}
	if c.Steps < 0 {
		bad(ErrInvalid, "steps %d must not be negative", c.Steps)
	}
	if c.BlockSize <= 0 {
		bad(ErrInvalid, "block_size %d must be positive", c.BlockSize)
	}
	if c.Workers < 0 {
		bad(ErrInvalid, "workers %d must not be negative", c.Workers)
	}
	if c.MaxEventIterations < 0 || c.MaxSpawnGenerations < 0 {
		bad(ErrInvalid, "iteration limits must not be negative")
	}
	if len(c.Kinds) == 0 {
		bad(ErrInvalid, "at least one kind is required")
	}

	seen := map[string]bool{}
	for _, k := range c.Kinds {
		if k.Name == "" {
			bad(ErrInvalid, "kind without name")
		}
		if seen[k.Name] {
			bad(ErrInvalid, "duplicate kind %q", k.Name)
		}
		seen[k.Name] = true
	}
	known := func(kind string) bool { _, ok := c.Kind(kind); return ok }

	for _, k := range c.Kinds {
		if k.Integrator != "" && !slices.Contains(IntegratorTypes, k.Integrator) {
			bad(ErrUnknownType, "integrator %q on %q", k.Integrator, k.Name)
		}
		for _, f := range k.Forces {
			if !slices.Contains(ForceTypes, f.Type) {
				bad(ErrUnknownType, "force %q on %q", f.Type, k.Name)
			}
		}
		for _, e := range k.Events {
			if !slices.Contains(EventTypes, e.Type) {
				bad(ErrUnknownType, "event %q on %q", e.Type, k.Name)
				continue
			}
			switch e.Type {
			case "explode":
				if !known(e.Kind) {
					bad(ErrUnknownKind, "explode on %q spawns %q", k.Name, e.Kind)
				}
				if e.Count < 0 {
					bad(ErrInvalid, "explode count %d on %q", e.Count, k.Name)
				}
			case "plane_collision":
				if e.Normal == (Vec3{}) {
					bad(ErrInvalid, "plane_collision on %q has zero normal", k.Name)
				}
				if e.Kind != "" && !known(e.Kind) {
					bad(ErrUnknownKind, "plane_collision on %q spawns %q", k.Name, e.Kind)
				}
			case "age_reached":
				if e.Lifetime <= 0 {
					bad(ErrInvalid, "age_reached on %q needs a positive lifetime", k.Name)
				}
			}
		}
		for _, tr := range k.Trails {
			if !known(tr.Kind) {
				bad(ErrUnknownKind, "trail on %q emits %q", k.Name, tr.Kind)
			}
		}
		for _, a := range k.Attributes {
			if !slices.Contains(AttributeTypes, a.Type) {
				bad(ErrUnknownType, "attribute %q type %q on %q", a.Name, a.Type, k.Name)
			}
		}
	}

	for i, e := range c.Emitters {
		if !slices.Contains(EmitterTypes, e.Type) {
			bad(ErrUnknownType, "emitter %d type %q", i, e.Type)
		}
		if !known(e.Kind) {
			bad(ErrUnknownKind, "emitter %d emits %q", i, e.Kind)
		}
		if e.Rate < 0 || e.Count < 0 {
			bad(ErrInvalid, "emitter %d has a negative rate or count", i)
		}
		if e.TargetParticles < 0 {
			bad(ErrInvalid, "emitter %d has a negative particle target", i)
		}
		if e.TargetParticles > 0 && e.Type == "burst" {
			bad(ErrInvalid, "emitter %d: burst emitters cannot hold a particle target", i)
		}
		if e.Type == "surface" && !slices.Contains(MeshTypes, e.Mesh.Type) {
			bad(ErrUnknownType, "emitter %d mesh %q", i, e.Mesh.Type)
		}
	}
	return errors.Join(errs...)
}
