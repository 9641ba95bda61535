package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/particlesim/internal/sim"
)

// Collector exports step stats as Prometheus metrics.
type Collector struct {
	particles *prometheus.GaugeVec
	blocks    *prometheus.GaugeVec
	emitted   prometheus.Counter
	killed    prometheus.Counter
	steps     prometheus.Counter
	duration  prometheus.Histogram
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		particles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "particlesim",
			Name:      "particles",
			Help:      "Live particles per kind.",
		}, []string{"kind"}),
		blocks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "particlesim",
			Name:      "blocks",
			Help:      "Allocated blocks per kind.",
		}, []string{"kind"}),
		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "particlesim",
			Name:      "emitted_total",
			Help:      "Particles created by emitters and events.",
		}),
		killed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "particlesim",
			Name:      "killed_total",
			Help:      "Particles removed after being killed.",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "particlesim",
			Name:      "steps_total",
			Help:      "Solver steps performed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "particlesim",
			Name:      "step_duration_seconds",
			Help:      "Wall time spent per solver step.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
	}
	reg.MustRegister(c.particles, c.blocks, c.emitted, c.killed, c.steps, c.duration)
	return c
}

func (c *Collector) OnStep(stats sim.StepStats) {
	for _, k := range stats.Kinds {
		c.particles.WithLabelValues(k.Kind).Set(float64(k.Particles))
		c.blocks.WithLabelValues(k.Kind).Set(float64(k.Blocks))
	}
	c.emitted.Add(float64(stats.Emitted))
	c.killed.Add(float64(stats.Killed))
	c.steps.Inc()
	c.duration.Observe(stats.Elapsed.Seconds())
}
