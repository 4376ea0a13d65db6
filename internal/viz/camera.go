package viz

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera orbits the centre of the simulation domain and projects world
// points onto a sub-pixel screen.
type Camera struct {
	Center           r3.Vec
	Distance, Near   float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	return &Camera{
		Center:   r3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
		Distance: 3,
		Near:     0.1,
		RotX:     0.35,
		RotY:     -0.6,
		Zoom:     1.0,
	}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// RotatePoint rotates a point about the camera centre.
func (c *Camera) RotatePoint(p r3.Vec) r3.Vec {
	p = r3.Sub(p, c.Center)
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project converts a world point to screen coordinates on an sw x sh pixel
// screen. It returns x, y, depth and whether the point is on screen.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, float64, bool) {
	rot := r3.Scale(c.Zoom, c.RotatePoint(p))
	dist := c.Distance
	if rot.Z >= dist-c.Near {
		return 0, 0, 0, false
	}
	scale := dist / (dist - rot.Z)
	pScale := 0.8 * float64(min(sw, sh))
	sx := int(math.Round(rot.X*scale*pScale)) + sw/2
	sy := int(math.Round(-rot.Y*scale*pScale)) + sh/2
	return sx, sy, rot.Z, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End r3.Vec
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe           { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e r3.Vec) { w.Edges = append(w.Edges, Edge{s, e}) }

// DomainWireframe outlines the unit cube the solver runs in.
func DomainWireframe() *Wireframe {
	w := NewWireframe()
	v := make([]r3.Vec, 8)
	for i := range v {
		v[i] = r3.Vec{X: float64(i & 1), Y: float64(i >> 1 & 1), Z: float64(i >> 2 & 1)}
	}
	for i := range v {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				w.AddEdge(v[i], v[i|bit])
			}
		}
	}
	return w
}

// RenderWireframe draws the visible edges of w.
func RenderWireframe(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	pw, ph := c.PixelSize()
	for _, e := range w.Edges {
		x1, y1, _, v1 := cam.Project(e.Start, pw, ph)
		x2, y2, _, v2 := cam.Project(e.End, pw, ph)
		if v1 || v2 {
			c.DrawLine(x1, y1, x2, y2)
		}
	}
}

// PointCloud plots particles back to front so each cell keeps the
// material of its nearest particle.
func PointCloud(c *Canvas, pts []r3.Vec, tags []int, cam *Camera) {
	pw, ph := c.PixelSize()
	type dot struct {
		x, y, tag int
		depth     float64
	}
	dots := make([]dot, 0, len(pts))
	for i, p := range pts {
		x, y, d, ok := cam.Project(p, pw, ph)
		if !ok {
			continue
		}
		tag := -1
		if i < len(tags) {
			tag = tags[i]
		}
		dots = append(dots, dot{x, y, tag, d})
	}
	sort.Slice(dots, func(i, j int) bool { return dots[i].depth < dots[j].depth })
	for _, d := range dots {
		c.SetTagged(d.x, d.y, d.tag)
	}
}
