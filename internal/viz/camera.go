package viz

import (
	"math"

	"github.com/san-kum/particlesim/internal/attr"
)

// Camera orbits Target and projects world points onto a canvas.
type Camera struct {
	Target   attr.Float3
	Yaw      float64
	Pitch    float64
	Distance float64
	Zoom     float64
}

func NewCamera() *Camera {
	return &Camera{Target: attr.Float3{Y: 3}, Pitch: 0.25, Distance: 30, Zoom: 1}
}

func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = math.Max(-1.5, math.Min(1.5, c.Pitch+dPitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(20, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.05, c.Zoom/1.2) }

// view rotates p into camera space, with z pointing away from the viewer.
func (c *Camera) view(p attr.Float3) (x, y, z float64) {
	x, y, z = float64(p.X-c.Target.X), float64(p.Y-c.Target.Y), float64(p.Z-c.Target.Z)
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	x, z = x*cy-z*sy, x*sy+z*cy
	cp, sp := math.Cos(c.Pitch), math.Sin(c.Pitch)
	y, z = y*cp-z*sp, y*sp+z*cp
	return x, y, z + c.Distance
}

// Project maps p to dot coordinates on a w x h canvas. Points behind the
// camera or off screen report ok == false.
func (c *Camera) Project(p attr.Float3, w, h int) (sx, sy int, depth float64, ok bool) {
	x, y, z := c.view(p)
	if z <= 0.1 {
		return 0, 0, z, false
	}
	scale := c.Zoom * c.Distance / z * float64(min(w, h)) / 20
	sx = int(math.Round(x*scale)) + w/2
	sy = int(math.Round(-y*scale)) + h/2
	return sx, sy, z, sx >= 0 && sx < w && sy >= 0 && sy < h
}

// Frame centers the camera on the bounding box of points.
func (c *Camera) Frame(points []attr.Float3) {
	if len(points) == 0 {
		return
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = attr.Float3{X: min(lo.X, p.X), Y: min(lo.Y, p.Y), Z: min(lo.Z, p.Z)}
		hi = attr.Float3{X: max(hi.X, p.X), Y: max(hi.Y, p.Y), Z: max(hi.Z, p.Z)}
	}
	c.Target = lo.Lerp(hi, 0.5)
	if extent := float64(hi.Sub(lo).Length()); extent > 0 {
		c.Zoom = math.Max(0.05, math.Min(20, 20/extent))
	}
}

// Draw projects points onto canvas and returns how many were visible.
func (c *Camera) Draw(canvas *Canvas, points []attr.Float3) int {
	w, h := canvas.DotWidth(), canvas.DotHeight()
	visible := 0
	for _, p := range points {
		if x, y, _, ok := c.Project(p, w, h); ok {
			canvas.Set(x, y)
			visible++
		}
	}
	return visible
}

// Ground draws the y = 0 plane as a square grid around the origin.
func (c *Camera) Ground(canvas *Canvas, half float32, lines int) {
	w, h := canvas.DotWidth(), canvas.DotHeight()
	lines = max(lines, 1)
	step := 2 * half / float32(lines)
	for i := 0; i <= lines; i++ {
		o := -half + float32(i)*step
		c.segment(canvas, attr.Float3{X: o, Z: -half}, attr.Float3{X: o, Z: half}, w, h)
		c.segment(canvas, attr.Float3{X: -half, Z: o}, attr.Float3{X: half, Z: o}, w, h)
	}
}

func (c *Camera) segment(canvas *Canvas, a, b attr.Float3, w, h int) {
	x0, y0, z0, ok0 := c.Project(a, w, h)
	x1, y1, z1, ok1 := c.Project(b, w, h)
	if (ok0 || ok1) && z0 > 0.1 && z1 > 0.1 {
		canvas.Line(x0, y0, x1, y1)
	}
}
