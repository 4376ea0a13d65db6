package objio

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Bounds returns the axis-aligned box around the vertices.
func (m *Mesh) Bounds() r3.Box {
	if len(m.Vertices) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		b.Min = r3.Vec{X: math.Min(b.Min.X, v.X), Y: math.Min(b.Min.Y, v.Y), Z: math.Min(b.Min.Z, v.Z)}
		b.Max = r3.Vec{X: math.Max(b.Max.X, v.X), Y: math.Max(b.Max.Y, v.Y), Z: math.Max(b.Max.Z, v.Z)}
	}
	return b
}

// ray direction for the parity test, skewed off the axes so it rarely grazes
// an edge of an axis-aligned mesh
var rayDir = r3.Unit(r3.Vec{X: 1, Y: 0.0137, Z: 0.0071})

// Contains reports whether p lies inside the closed triangle mesh, by counting
// crossings of a ray cast from p.
func (m *Mesh) Contains(p r3.Vec) bool {
	hits := 0
	for _, f := range m.Faces {
		if rayHits(p, rayDir, m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]) {
			hits++
		}
	}
	return hits%2 == 1
}

// rayHits is the Moller-Trumbore ray/triangle test for t > 0.
func rayHits(orig, dir, a, b, c r3.Vec) bool {
	const eps = 1e-12
	e1 := r3.Sub(b, a)
	e2 := r3.Sub(c, a)
	h := r3.Cross(dir, e2)
	det := r3.Dot(e1, h)
	if math.Abs(det) < eps {
		return false
	}
	inv := 1 / det
	s := r3.Sub(orig, a)
	u := inv * r3.Dot(s, h)
	if u < 0 || u > 1 {
		return false
	}
	q := r3.Cross(s, e1)
	v := inv * r3.Dot(dir, q)
	if v < 0 || u+v > 1 {
		return false
	}
	return inv*r3.Dot(e2, q) > eps
}

// SampleInterior fills the inside of a closed mesh with points on a lattice of
// the given spacing, each moved by up to jitter*spacing/2 per axis.
func SampleInterior(m *Mesh, spacing, jitter float64, rng *rand.Rand) []r3.Vec {
	if spacing <= 0 || len(m.Faces) == 0 {
		return nil
	}
	b := m.Bounds()
	nx := int(math.Ceil((b.Max.X - b.Min.X) / spacing))
	ny := int(math.Ceil((b.Max.Y - b.Min.Y) / spacing))
	nz := int(math.Ceil((b.Max.Z - b.Min.Z) / spacing))

	points := make([]r3.Vec, 0)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				p := r3.Vec{
					X: b.Min.X + (float64(i)+0.5)*spacing,
					Y: b.Min.Y + (float64(j)+0.5)*spacing,
					Z: b.Min.Z + (float64(k)+0.5)*spacing,
				}
				if jitter > 0 && rng != nil {
					p.X += (rng.Float64() - 0.5) * jitter * spacing
					p.Y += (rng.Float64() - 0.5) * jitter * spacing
					p.Z += (rng.Float64() - 0.5) * jitter * spacing
				}
				if m.Contains(p) {
					points = append(points, p)
				}
			}
		}
	}
	return points
}
