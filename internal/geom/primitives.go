package geom

import (
	"math"

	"github.com/san-kum/particlesim/internal/attr"
)

// Grid is a square in the XZ plane centered on the origin, facing +Y.
func Grid(size float32, divisions int) *Mesh {
	divisions = max(divisions, 1)
	m := &Mesh{}
	step := size / float32(divisions)
	half := size / 2
	row := int32(divisions + 1)
	for z := 0; z <= divisions; z++ {
		for x := 0; x <= divisions; x++ {
			m.Vertices = append(m.Vertices, attr.Float3{
				X: float32(x)*step - half,
				Z: float32(z)*step - half,
			})
		}
	}
	for z := int32(0); z < int32(divisions); z++ {
		for x := int32(0); x < int32(divisions); x++ {
			i := z*row + x
			m.Triangles = append(m.Triangles,
				[3]int32{i, i + row, i + 1},
				[3]int32{i + 1, i + row, i + row + 1},
			)
		}
	}
	return m
}

// UVSphere is a sphere of the given radius with outward facing triangles.
func UVSphere(radius float32, segments, rings int) *Mesh {
	segments, rings = max(segments, 3), max(rings, 2)
	m := &Mesh{}
	for r := 0; r <= rings; r++ {
		theta := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			phi := 2 * math.Pi * float64(s) / float64(segments)
			m.Vertices = append(m.Vertices, attr.Float3{
				X: radius * float32(math.Sin(theta)*math.Cos(phi)),
				Y: radius * float32(math.Cos(theta)),
				Z: radius * float32(math.Sin(theta)*math.Sin(phi)),
			})
		}
	}
	row := int32(segments + 1)
	for r := int32(0); r < int32(rings); r++ {
		for s := int32(0); s < int32(segments); s++ {
			i := r*row + s
			if r != 0 {
				m.Triangles = append(m.Triangles, [3]int32{i, i + 1, i + row})
			}
			if r != int32(rings)-1 {
				m.Triangles = append(m.Triangles, [3]int32{i + 1, i + row + 1, i + row})
			}
		}
	}
	return m
}
