package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt                  = 0.02
	DefaultSteps               = 500
	DefaultBlockSize           = 1000
	DefaultSeed                = 1
	DefaultMaxEventIterations  = 1
	DefaultMaxSpawnGenerations = 16
)

type Config struct {
	Name                string          `yaml:"name,omitempty"`
	Seed                uint64          `yaml:"seed"`
	Dt                  float64         `yaml:"dt"`
	Steps               int             `yaml:"steps"`
	BlockSize           int             `yaml:"block_size"`
	Workers             int             `yaml:"workers"`
	MaxEventIterations  int             `yaml:"max_event_iterations"`
	MaxSpawnGenerations int             `yaml:"max_spawn_generations"`
	Kinds               []KindConfig    `yaml:"kinds"`
	Emitters            []EmitterConfig `yaml:"emitters"`
}

type Vec3 struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

type Color struct {
	R float32 `yaml:"r"`
	G float32 `yaml:"g"`
	B float32 `yaml:"b"`
	A float32 `yaml:"a"`
}

// KindConfig describes one particle type and its behaviors.
type KindConfig struct {
	Name       string            `yaml:"name"`
	Integrator string            `yaml:"integrator"`
	Forces     []ForceConfig     `yaml:"forces,omitempty"`
	Events     []EventConfig     `yaml:"events,omitempty"`
	Trails     []TrailConfig     `yaml:"trails,omitempty"`
	Attributes []AttributeConfig `yaml:"attributes,omitempty"`
}

type ForceConfig struct {
	Type        string  `yaml:"type"`
	Vector      Vec3    `yaml:"vector,omitempty"`
	Anchor      Vec3    `yaml:"anchor,omitempty"`
	Coefficient float32 `yaml:"coefficient,omitempty"`
	Strength    float32 `yaml:"strength,omitempty"`
	Scale       float32 `yaml:"scale,omitempty"`
	Seed        uint32  `yaml:"seed,omitempty"`
}

type EventConfig struct {
	Type        string  `yaml:"type"`
	Lifetime    float32 `yaml:"lifetime,omitempty"`
	Point       Vec3    `yaml:"point,omitempty"`
	Normal      Vec3    `yaml:"normal,omitempty"`
	Restitution float32 `yaml:"restitution,omitempty"`
	Friction    float32 `yaml:"friction,omitempty"`
	Kill        bool    `yaml:"kill,omitempty"`
	Kind        string  `yaml:"kind,omitempty"`
	Count       int     `yaml:"count,omitempty"`
	Speed       float32 `yaml:"speed,omitempty"`
	Inherit     float32 `yaml:"inherit,omitempty"`
	Fuse        float32 `yaml:"fuse,omitempty"`
}

type TrailConfig struct {
	Kind     string  `yaml:"kind"`
	Rate     float32 `yaml:"rate"`
	Color    Color   `yaml:"color,omitempty"`
	Size     float32 `yaml:"size,omitempty"`
	Lifetime float32 `yaml:"lifetime,omitempty"`
}

type AttributeConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type EmitterConfig struct {
	Type           string     `yaml:"type"`
	Kind           string     `yaml:"kind"`
	Rate           float32    `yaml:"rate,omitempty"`
	Position       Vec3       `yaml:"position,omitempty"`
	Direction      Vec3       `yaml:"direction,omitempty"`
	Spread         float32    `yaml:"spread,omitempty"`
	Speed          float32    `yaml:"speed,omitempty"`
	SpeedJitter    float32    `yaml:"speed_jitter,omitempty"`
	At             float32    `yaml:"at,omitempty"`
	Count          int        `yaml:"count,omitempty"`
	Mesh           MeshConfig `yaml:"mesh,omitempty"`
	Density        bool       `yaml:"density,omitempty"`
	Color          Color      `yaml:"color,omitempty"`
	Size           float32    `yaml:"size,omitempty"`
	Lifetime       float32    `yaml:"lifetime,omitempty"`
	LifetimeJitter float32    `yaml:"lifetime_jitter,omitempty"`

	// TargetParticles > 0 adjusts Rate to hold the emitted kind near this
	// many live particles.
	TargetParticles int `yaml:"target_particles,omitempty"`
}

type MeshConfig struct {
	Type      string  `yaml:"type,omitempty"`
	Size      float32 `yaml:"size,omitempty"`
	Radius    float32 `yaml:"radius,omitempty"`
	Divisions int     `yaml:"divisions,omitempty"`
	Offset    Vec3    `yaml:"offset,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Seed:                DefaultSeed,
		Dt:                  DefaultDt,
		Steps:               DefaultSteps,
		BlockSize:           DefaultBlockSize,
		MaxEventIterations:  DefaultMaxEventIterations,
		MaxSpawnGenerations: DefaultMaxSpawnGenerations,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Kind looks up a kind by name.
func (c *Config) Kind(name string) (*KindConfig, bool) {
	for i := range c.Kinds {
		if c.Kinds[i].Name == name {
			return &c.Kinds[i], true
		}
	}
	return nil, false
}
