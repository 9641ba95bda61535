package analysis

import (
	"math"

	"github.com/san-kum/particlesim/internal/attr"
)

// Summary describes where the particles of a snapshot are.
type Summary struct {
	Count    int
	Centroid attr.Float3
	Min, Max attr.Float3
	// Spread is the RMS distance from the centroid.
	Spread float64
}

func Describe(points []attr.Float3) Summary {
	if len(points) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(points), Min: points[0], Max: points[0]}
	var cx, cy, cz float64
	for _, p := range points {
		cx += float64(p.X)
		cy += float64(p.Y)
		cz += float64(p.Z)
		s.Min = attr.Float3{X: min(s.Min.X, p.X), Y: min(s.Min.Y, p.Y), Z: min(s.Min.Z, p.Z)}
		s.Max = attr.Float3{X: max(s.Max.X, p.X), Y: max(s.Max.Y, p.Y), Z: max(s.Max.Z, p.Z)}
	}
	n := float64(len(points))
	s.Centroid = attr.Float3{X: float32(cx / n), Y: float32(cy / n), Z: float32(cz / n)}

	var sq float64
	for _, p := range points {
		d := p.Sub(s.Centroid)
		sq += float64(d.Dot(d))
	}
	s.Spread = math.Sqrt(sq / n)
	return s
}

// Axis selects a position component.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) of(p attr.Float3) float32 {
	switch a {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	}
	return p.Z
}

// Histogram splits the range of axis into equal width bins and counts the
// points in each. lo is the lower edge of the first bin.
func Histogram(points []attr.Float3, axis Axis, bins int) (counts []int, lo, width float64) {
	if len(points) == 0 || bins <= 0 {
		return nil, 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		v := float64(axis.of(p))
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	width = (hi - lo) / float64(bins)
	counts = make([]int, bins)
	for _, p := range points {
		i := bins - 1
		if width > 0 {
			i = min(bins-1, int((float64(axis.of(p))-lo)/width))
		}
		counts[i]++
	}
	return counts, lo, width
}
