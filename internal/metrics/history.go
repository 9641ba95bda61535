package metrics

import (
	"sync"

	"github.com/san-kum/particlesim/internal/sim"
)

// History keeps every step's stats. It is safe to read while a simulation
// is writing to it.
type History struct {
	mu    sync.RWMutex
	steps []sim.StepStats
	limit int
}

// NewHistory keeps at most limit steps, dropping the oldest. Zero keeps all.
func NewHistory(limit int) *History { return &History{limit: limit} }

func (h *History) OnStep(stats sim.StepStats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.steps = append(h.steps, stats)
	if h.limit > 0 && len(h.steps) > h.limit {
		h.steps = append(h.steps[:0], h.steps[len(h.steps)-h.limit:]...)
	}
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.steps)
}

func (h *History) Steps() []sim.StepStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]sim.StepStats(nil), h.steps...)
}

func (h *History) Last() (sim.StepStats, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.steps) == 0 {
		return sim.StepStats{}, false
	}
	return h.steps[len(h.steps)-1], true
}

// SeriesNames lists the names understood by History.Series.
var SeriesNames = []string{"particles", "emitted", "killed", "blocks", "step_ms"}

// Series extracts one value per step. Unknown names yield nil.
func (h *History) Series(name string) []float64 {
	var pick func(sim.StepStats) float64
	switch name {
	case "particles":
		pick = func(s sim.StepStats) float64 { return float64(s.Particles()) }
	case "emitted":
		pick = func(s sim.StepStats) float64 { return float64(s.Emitted) }
	case "killed":
		pick = func(s sim.StepStats) float64 { return float64(s.Killed) }
	case "blocks":
		pick = func(s sim.StepStats) float64 {
			n := 0
			for _, k := range s.Kinds {
				n += k.Blocks
			}
			return float64(n)
		}
	case "step_ms":
		pick = func(s sim.StepStats) float64 { return float64(s.Elapsed.Microseconds()) / 1000 }
	default:
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]float64, len(h.steps))
	for i, s := range h.steps {
		out[i] = pick(s)
	}
	return out
}
