package geom

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/san-kum/particlesim/internal/attr"
)

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices  []attr.Float3
	Triangles [][3]int32
}

func (m *Mesh) Validate() error {
	for i, tri := range m.Triangles {
		for _, v := range tri {
			if v < 0 || int(v) >= len(m.Vertices) {
				return fmt.Errorf("geom: triangle %d references vertex %d of %d", i, v, len(m.Vertices))
			}
		}
	}
	return nil
}

func (m *Mesh) triangle(i int) (a, b, c attr.Float3) {
	t := m.Triangles[i]
	return m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
}

// Normal is the unit normal of triangle i, following its winding.
func (m *Mesh) Normal(i int) attr.Float3 {
	a, b, c := m.triangle(i)
	return b.Sub(a).Cross(c.Sub(a)).Normalized()
}

func (m *Mesh) Area(i int) float32 {
	a, b, c := m.triangle(i)
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Length()
}

// Transform returns a copy of m scaled and then translated.
func (m *Mesh) Transform(scale float32, offset attr.Float3) *Mesh {
	out := &Mesh{
		Vertices:  make([]attr.Float3, len(m.Vertices)),
		Triangles: append([][3]int32(nil), m.Triangles...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = v.Scale(scale).Add(offset)
	}
	return out
}

// SurfaceSampler draws uniformly distributed points on a mesh surface.
type SurfaceSampler struct {
	mesh *Mesh
	cdf  []float32
}

func NewSurfaceSampler(m *Mesh) *SurfaceSampler {
	cdf := make([]float32, len(m.Triangles))
	var total float32
	for i := range m.Triangles {
		total += m.Area(i)
		cdf[i] = total
	}
	return &SurfaceSampler{mesh: m, cdf: cdf}
}

func (s *SurfaceSampler) Mesh() *Mesh { return s.mesh }

// TotalArea is the summed area of all triangles.
func (s *SurfaceSampler) TotalArea() float32 {
	if len(s.cdf) == 0 {
		return 0
	}
	return s.cdf[len(s.cdf)-1]
}

// Sample returns a point and the normal of the triangle it lies on. A mesh
// without area yields ok == false.
func (s *SurfaceSampler) Sample(rng *rand.Rand) (p, n attr.Float3, ok bool) {
	total := s.TotalArea()
	if total <= 0 {
		return attr.Float3{}, attr.Float3{}, false
	}
	target := rng.Float32() * total
	i := sort.Search(len(s.cdf), func(i int) bool { return s.cdf[i] > target })
	if i == len(s.cdf) {
		i--
	}
	a, b, c := s.mesh.triangle(i)
	u, v := rng.Float32(), rng.Float32()
	if u+v > 1 {
		u, v = 1-u, 1-v
	}
	p = a.Add(b.Sub(a).Scale(u)).Add(c.Sub(a).Scale(v))
	return p, s.mesh.Normal(i), true
}

// RandomDirection is a unit vector uniformly distributed on the sphere.
func RandomDirection(rng *rand.Rand) attr.Float3 {
	z := 2*rng.Float32() - 1
	phi := 2 * math.Pi * rng.Float64()
	r := float32(math.Sqrt(float64(1 - z*z)))
	return attr.Float3{X: r * float32(math.Cos(phi)), Y: r * float32(math.Sin(phi)), Z: z}
}

// RandomInCone is a unit vector within angle radians of axis.
func RandomInCone(rng *rand.Rand, axis attr.Float3, angle float32) attr.Float3 {
	axis = axis.Normalized()
	if angle <= 0 || axis == (attr.Float3{}) {
		return axis
	}
	cosMax := float32(math.Cos(float64(angle)))
	z := 1 - rng.Float32()*(1-cosMax)
	phi := 2 * math.Pi * rng.Float64()
	r := float32(math.Sqrt(float64(max(0, 1-z*z))))

	u, v := basis(axis)
	return u.Scale(r * float32(math.Cos(phi))).
		Add(v.Scale(r * float32(math.Sin(phi)))).
		Add(axis.Scale(z))
}

// basis returns two unit vectors orthogonal to n and to each other.
func basis(n attr.Float3) (u, v attr.Float3) {
	ref := attr.Float3{X: 1}
	if abs(n.X) > 0.9 {
		ref = attr.Float3{Y: 1}
	}
	u = n.Cross(ref).Normalized()
	v = n.Cross(u)
	return u, v
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
