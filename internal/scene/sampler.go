package scene

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/objio"
)

// Sampler produces the initial particle positions of one body.
type Sampler func(b config.BodyConfig, rng *rand.Rand) ([]r3.Vec, error)

// sampleCube draws Count uniform random points in the box [Min, Min+Size].
func sampleCube(b config.BodyConfig, rng *rand.Rand) ([]r3.Vec, error) {
	pts := make([]r3.Vec, b.Count)
	for i := range pts {
		pts[i] = r3.Vec{
			X: b.Min[0] + rng.Float64()*b.Size[0],
			Y: b.Min[1] + rng.Float64()*b.Size[1],
			Z: b.Min[2] + rng.Float64()*b.Size[2],
		}
	}
	return pts, nil
}

// samplePoints uses the vertices of an OBJ point cloud as particles.
func samplePoints(b config.BodyConfig, _ *rand.Rand) ([]r3.Vec, error) {
	m, err := objio.ReadFile(b.Source)
	if err != nil {
		return nil, err
	}
	if len(m.Vertices) == 0 {
		return nil, fmt.Errorf("%s: %w", b.Source, objio.ErrNoVertices)
	}
	return Fit(m.Vertices, b.Center.R3(), b.Extent), nil
}

// sampleMesh fills a closed OBJ mesh, fitted the same way as a point cloud.
func sampleMesh(b config.BodyConfig, rng *rand.Rand) ([]r3.Vec, error) {
	m, err := objio.ReadFile(b.Source)
	if err != nil {
		return nil, err
	}
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("%s: mesh has no faces", b.Source)
	}
	m.Vertices = Fit(m.Vertices, b.Center.R3(), b.Extent)
	pts := objio.SampleInterior(m, b.Spacing, b.Jitter, rng)
	if len(pts) == 0 {
		return nil, fmt.Errorf("%s: no samples at spacing %g", b.Source, b.Spacing)
	}
	return pts, nil
}

// Fit scales pts uniformly so the largest edge of their bounding box is
// extent and centres the box on center.
func Fit(pts []r3.Vec, center r3.Vec, extent float64) []r3.Vec {
	if len(pts) == 0 {
		return nil
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	size := r3.Sub(hi, lo)
	edge := math.Max(size.X, math.Max(size.Y, size.Z))
	scale := 1.0
	if edge > 0 {
		scale = extent / edge
	}
	mid := r3.Scale(0.5, r3.Add(lo, hi))

	out := make([]r3.Vec, len(pts))
	for i, p := range pts {
		out[i] = r3.Add(center, r3.Scale(scale, r3.Sub(p, mid)))
	}
	return out
}
