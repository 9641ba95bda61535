// Package export renders simulation output as standalone SVG images.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/san-kum/particlesim/internal/attr"
	"github.com/san-kum/particlesim/internal/viz"
)

const background = "#0a0a0a"

// SnapshotOptions controls particle snapshot rendering.
type SnapshotOptions struct {
	Width, Height int
	Radius        float64
	Fill          string
}

func (o SnapshotOptions) withDefaults() SnapshotOptions {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.Radius <= 0 {
		o.Radius = 1.5
	}
	if o.Fill == "" {
		o.Fill = "#ffb347"
	}
	return o
}

// Snapshot projects points through cam and writes one circle per visible
// particle. Farther particles are drawn first and smaller.
func Snapshot(w io.Writer, points []attr.Float3, cam *viz.Camera, opts SnapshotOptions) error {
	opts = opts.withDefaults()

	type dot struct {
		x, y  int
		depth float64
	}
	dots := make([]dot, 0, len(points))
	for _, p := range points {
		if x, y, depth, ok := cam.Project(p, opts.Width, opts.Height); ok {
			dots = append(dots, dot{x, y, depth})
		}
	}
	sort.SliceStable(dots, func(i, j int) bool { return dots[i].depth > dots[j].depth })

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, opts.Width, opts.Height, opts.Width, opts.Height, background, opts.Fill)
	for _, d := range dots {
		r := opts.Radius * cam.Distance / d.depth
		fmt.Fprintf(&sb, "<circle cx=\"%d\" cy=\"%d\" r=\"%.2f\"/>\n", d.x, d.y, r)
	}
	sb.WriteString("</g>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// Series draws values as a polyline, e.g. the live particle count of a run.
func Series(w io.Writer, values []float64, width, height int, stroke string) error {
	if len(values) < 2 {
		return fmt.Errorf("export: series needs at least 2 values, got %d", len(values))
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	span *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`, width, height, width, height, background, stroke)
	for i, v := range values {
		x := float64(i) / float64(len(values)-1) * float64(width)
		y := float64(height) - (v-lo)/span*float64(height)
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}
	sb.WriteString("\"/>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
