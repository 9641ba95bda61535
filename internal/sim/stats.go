package sim

import "time"

// KindStats is the population of one particle type after a step.
type KindStats struct {
	Kind      string
	Particles int
	Blocks    int
}

// StepStats summarizes one solver step.
type StepStats struct {
	Step        int
	Start       float32
	Duration    float32
	Emitted     int
	Killed      int
	Released    int
	Generations int
	Kinds       []KindStats
	Elapsed     time.Duration
}

// Particles is the total population after the step.
func (s StepStats) Particles() int {
	n := 0
	for _, k := range s.Kinds {
		n += k.Particles
	}
	return n
}

// Observer is notified after every step.
type Observer interface {
	OnStep(stats StepStats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(StepStats)

func (f ObserverFunc) OnStep(stats StepStats) { f(stats) }
