package stream

import (
	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/sim"
)

// Frame is the message broadcast after every step.
type Frame struct {
	Step      int            `json:"step"`
	Time      float32        `json:"time"`
	Particles int            `json:"particles"`
	Emitted   int            `json:"emitted"`
	Killed    int            `json:"killed"`
	StepMs    float64        `json:"step_ms"`
	Kinds     map[string]int `json:"kinds"`
	Positions [][3]float32   `json:"positions"`
	Sampled   bool           `json:"sampled,omitempty"`
}

// Control is sent by clients. Absent fields are left unchanged.
type Control struct {
	Paused *bool    `json:"paused,omitempty"`
	Speed  *float64 `json:"speed,omitempty"`
}

// NewFrame builds a frame from step stats and the current positions,
// keeping at most maxPoints evenly strided positions when maxPoints > 0.
func NewFrame(stats sim.StepStats, positions []attr.Float3, maxPoints int) Frame {
	f := Frame{
		Step:      stats.Step,
		Time:      stats.Start + stats.Duration,
		Particles: stats.Particles(),
		Emitted:   stats.Emitted,
		Killed:    stats.Killed,
		StepMs:    float64(stats.Elapsed.Microseconds()) / 1000,
		Kinds:     make(map[string]int, len(stats.Kinds)),
	}
	for _, k := range stats.Kinds {
		f.Kinds[k.Kind] = k.Particles
	}

	stride := 1
	if maxPoints > 0 && len(positions) > maxPoints {
		stride = (len(positions) + maxPoints - 1) / maxPoints
		f.Sampled = true
	}
	f.Positions = make([][3]float32, 0, len(positions)/stride+1)
	for i := 0; i < len(positions); i += stride {
		p := positions[i]
		f.Positions = append(f.Positions, [3]float32{p.X, p.Y, p.Z})
	}
	return f
}
