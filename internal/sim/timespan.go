package sim

// TimeSpan is the interval [Start, Start+Duration) covered by one step.
type TimeSpan struct {
	Start    float32
	Duration float32
}

func (t TimeSpan) End() float32 { return t.Start + t.Duration }

// Interpolate maps a factor in [0, 1] to a time inside the span.
func (t TimeSpan) Interpolate(factor float32) float32 {
	return t.Start + factor*t.Duration
}

// Factor is the inverse of Interpolate. A zero-length span maps everything to 0.
func (t TimeSpan) Factor(time float32) float32 {
	if t.Duration == 0 {
		return 0
	}
	return (time - t.Start) / t.Duration
}

// Clamp limits time to the span.
func (t TimeSpan) Clamp(time float32) float32 {
	return min(max(time, t.Start), t.End())
}
