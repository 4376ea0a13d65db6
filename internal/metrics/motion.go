package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mpmsim/internal/mpm"
)

// CenterOfMassHeight is the mean particle height. Particles share one mass,
// so this is the y of the centre of mass.
type CenterOfMassHeight struct {
	name  string
	value float64
}

func NewCenterOfMassHeight() *CenterOfMassHeight {
	return &CenterOfMassHeight{name: "com_height"}
}

func (c *CenterOfMassHeight) Name() string { return c.name }

func (c *CenterOfMassHeight) Observe(frame int, t float64, p *mpm.Particles) {
	if p.Len() == 0 {
		c.value = 0
		return
	}
	sum := 0.0
	for _, x := range p.X {
		sum += x.Y
	}
	c.value = sum / float64(p.Len())
}

func (c *CenterOfMassHeight) Value() float64 { return c.value }
func (c *CenterOfMassHeight) Reset()         { c.value = 0 }

type MaxSpeed struct {
	name  string
	value float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(frame int, t float64, p *mpm.Particles) {
	m.value = maxSpeed(p)
}

func (m *MaxSpeed) Value() float64 { return m.value }
func (m *MaxSpeed) Reset()         { m.value = 0 }

func maxSpeed(p *mpm.Particles) float64 {
	vmax := 0.0
	for _, v := range p.V {
		vmax = math.Max(vmax, r3.Norm(v))
	}
	return vmax
}

// BoundingHeight is the vertical extent of the particle cloud.
type BoundingHeight struct {
	name  string
	value float64
}

func NewBoundingHeight() *BoundingHeight {
	return &BoundingHeight{name: "bounding_height"}
}

func (b *BoundingHeight) Name() string { return b.name }

func (b *BoundingHeight) Observe(frame int, t float64, p *mpm.Particles) {
	box := p.Bounds()
	b.value = box.Max.Y - box.Min.Y
}

func (b *BoundingHeight) Value() float64 { return b.value }
func (b *BoundingHeight) Reset()         { b.value = 0 }
