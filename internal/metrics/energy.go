package metrics

import (
	"math"

	"github.com/san-kum/mpmsim/internal/mpm"
)

// KineticEnergy is sum(m |v|^2 / 2) over the particles of the last frame. It
// also keeps the peak over the run.
type KineticEnergy struct {
	name  string
	mass  float64
	value float64
	peak  float64
}

func NewKineticEnergy(particleMass float64) *KineticEnergy {
	return &KineticEnergy{
		name: "kinetic_energy",
		mass: particleMass,
	}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(frame int, t float64, p *mpm.Particles) {
	sum := 0.0
	for _, v := range p.V {
		sum += v.X*v.X + v.Y*v.Y + v.Z*v.Z
	}
	e.value = 0.5 * e.mass * sum
	e.peak = math.Max(e.peak, e.value)
}

func (e *KineticEnergy) Value() float64 { return e.value }
func (e *KineticEnergy) Peak() float64  { return e.peak }

func (e *KineticEnergy) Reset() {
	e.value = 0
	e.peak = 0
}
