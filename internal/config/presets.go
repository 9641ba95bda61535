package config

import "sort"

var gravity = ForceConfig{Type: "gravity", Vector: Vec3{Y: -9.8}}

var presets = map[string]func() *Config{
	"fountain": func() *Config {
		c := DefaultConfig()
		c.Name = "fountain"
		c.MaxEventIterations = 3
		c.Kinds = []KindConfig{{
			Name:       "water",
			Integrator: "verlet",
			Forces:     []ForceConfig{gravity, {Type: "drag", Coefficient: 0.1}},
			Events: []EventConfig{
				{Type: "age_reached", Lifetime: 4},
				{Type: "plane_collision", Normal: Vec3{Y: 1}, Restitution: 0.4, Friction: 0.2},
			},
		}}
		c.Emitters = []EmitterConfig{{
			Type: "point", Kind: "water", Rate: 400,
			Direction: Vec3{Y: 1}, Spread: 0.25, Speed: 8, SpeedJitter: 1,
			Color: Color{R: 0.3, G: 0.6, B: 1, A: 1}, Lifetime: 4, LifetimeJitter: 0.5,
		}}
		return c
	},
	"fireworks": func() *Config {
		c := DefaultConfig()
		c.Name = "fireworks"
		c.Kinds = []KindConfig{
			{
				Name:       "shell",
				Integrator: "verlet",
				Forces:     []ForceConfig{gravity},
				Events: []EventConfig{
					{Type: "explode", Kind: "spark", Count: 80, Speed: 5, Inherit: 0.3, Fuse: 1.4},
				},
				Trails: []TrailConfig{{Kind: "smoke", Rate: 40, Lifetime: 0.6, Color: Color{R: 0.6, G: 0.6, B: 0.6, A: 1}}},
			},
			{
				Name:       "spark",
				Integrator: "euler",
				Forces:     []ForceConfig{gravity, {Type: "drag", Coefficient: 1.2}},
				Events:     []EventConfig{{Type: "age_reached", Lifetime: 1.6}},
			},
			{
				Name:       "smoke",
				Integrator: "euler",
				Forces:     []ForceConfig{{Type: "turbulence", Strength: 0.8, Scale: 2}},
				Events:     []EventConfig{{Type: "age_reached", Lifetime: 0.6}},
			},
		}
		c.Emitters = []EmitterConfig{{
			Type: "point", Kind: "shell", Rate: 1.5,
			Direction: Vec3{Y: 1}, Spread: 0.3, Speed: 14, SpeedJitter: 2,
			Color: Color{R: 1, G: 0.8, B: 0.2, A: 1},
		}}
		return c
	},
	"rain": func() *Config {
		c := DefaultConfig()
		c.Name = "rain"
		c.Kinds = []KindConfig{
			{
				Name:       "drop",
				Integrator: "euler",
				Forces:     []ForceConfig{gravity, {Type: "drag", Coefficient: 0.05}},
				Events: []EventConfig{
					{Type: "plane_collision", Normal: Vec3{Y: 1}, Kill: true, Kind: "splash", Count: 3, Speed: 1.5},
				},
			},
			{
				Name:       "splash",
				Integrator: "euler",
				Forces:     []ForceConfig{gravity},
				Events:     []EventConfig{{Type: "age_reached", Lifetime: 0.3}},
			},
		}
		c.Emitters = []EmitterConfig{{
			Type: "surface", Kind: "drop", Rate: 3, Density: true,
			Mesh:  MeshConfig{Type: "grid", Size: 20, Divisions: 4, Offset: Vec3{Y: 12}},
			Color: Color{R: 0.5, G: 0.7, B: 1, A: 1},
		}}
		return c
	},
	"smoke": func() *Config {
		c := DefaultConfig()
		c.Name = "smoke"
		c.Kinds = []KindConfig{{
			Name:       "puff",
			Integrator: "rk4",
			Forces: []ForceConfig{
				{Type: "gravity", Vector: Vec3{Y: 0.6}},
				{Type: "drag", Coefficient: 0.5},
				{Type: "turbulence", Strength: 2, Scale: 1.5, Seed: 3},
			},
			Events: []EventConfig{{Type: "age_reached", Lifetime: 6}},
		}}
		c.Emitters = []EmitterConfig{{
			Type: "surface", Kind: "puff", Rate: 150, Speed: 0.5, Spread: 0.6,
			Mesh:  MeshConfig{Type: "sphere", Radius: 0.5, Divisions: 8},
			Color: Color{R: 0.8, G: 0.8, B: 0.8, A: 0.5}, Lifetime: 6, LifetimeJitter: 1, TargetParticles: 600,
		}}
		return c
	},
}

// GetPreset returns a fresh copy of a named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
