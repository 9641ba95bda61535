package metrics

import (
	"time"

	"github.com/san-kum/particlesim/internal/sim"
)

// Metric reduces a run's step stats to a single value.
type Metric interface {
	Name() string
	Observe(stats sim.StepStats)
	Value() float64
	Reset()
}

// Defaults returns the metrics every run reports.
func Defaults() []Metric {
	return []Metric{NewPeakParticles(), NewThroughput(), NewTurnover()}
}

// Observer feeds metrics from simulation steps.
type Observer struct {
	metrics []Metric
}

func NewObserver(ms ...Metric) *Observer { return &Observer{metrics: ms} }

func (o *Observer) OnStep(stats sim.StepStats) {
	for _, m := range o.metrics {
		m.Observe(stats)
	}
}

func (o *Observer) Values() map[string]float64 {
	out := make(map[string]float64, len(o.metrics))
	for _, m := range o.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

type PeakParticles struct {
	peak int
}

func NewPeakParticles() *PeakParticles { return &PeakParticles{} }

func (p *PeakParticles) Name() string { return "peak_particles" }
func (p *PeakParticles) Observe(stats sim.StepStats) {
	p.peak = max(p.peak, stats.Particles())
}
func (p *PeakParticles) Value() float64 { return float64(p.peak) }
func (p *PeakParticles) Reset()         { p.peak = 0 }

// Throughput is particle updates per second of wall time.
type Throughput struct {
	updates int
	elapsed time.Duration
}

func NewThroughput() *Throughput { return &Throughput{} }

func (t *Throughput) Name() string { return "particles_per_second" }

func (t *Throughput) Observe(stats sim.StepStats) {
	t.updates += stats.Particles()
	t.elapsed += stats.Elapsed
}

func (t *Throughput) Value() float64 {
	if t.elapsed <= 0 {
		return 0
	}
	return float64(t.updates) / t.elapsed.Seconds()
}

func (t *Throughput) Reset() { t.updates, t.elapsed = 0, 0 }

// Turnover is the ratio of killed to emitted particles.
type Turnover struct {
	emitted, killed int
}

func NewTurnover() *Turnover { return &Turnover{} }

func (t *Turnover) Name() string { return "turnover" }

func (t *Turnover) Observe(stats sim.StepStats) {
	t.emitted += stats.Emitted
	t.killed += stats.Killed
}

func (t *Turnover) Value() float64 {
	if t.emitted == 0 {
		return 0
	}
	return float64(t.killed) / float64(t.emitted)
}

func (t *Turnover) Reset() { t.emitted, t.killed = 0, 0 }
