package mpm

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Particles stores the material points as parallel slices.
type Particles struct {
	X  []r3.Vec // position
	V  []r3.Vec // velocity
	C  []Mat3   // affine velocity field
	F  []Mat3   // deformation gradient
	Jp []float64
	// Material indexes the solver's material table.
	Material []int
}

func NewParticles(capacity int) *Particles {
	return &Particles{
		X:        make([]r3.Vec, 0, capacity),
		V:        make([]r3.Vec, 0, capacity),
		C:        make([]Mat3, 0, capacity),
		F:        make([]Mat3, 0, capacity),
		Jp:       make([]float64, 0, capacity),
		Material: make([]int, 0, capacity),
	}
}

func (p *Particles) Len() int { return len(p.X) }

// Append adds an undeformed particle.
func (p *Particles) Append(x, v r3.Vec, material int) {
	p.X = append(p.X, x)
	p.V = append(p.V, v)
	p.C = append(p.C, Mat3{})
	p.F = append(p.F, Identity())
	p.Jp = append(p.Jp, 1)
	p.Material = append(p.Material, material)
}

func (p *Particles) Clone() *Particles {
	c := &Particles{
		X:        make([]r3.Vec, len(p.X)),
		V:        make([]r3.Vec, len(p.V)),
		C:        make([]Mat3, len(p.C)),
		F:        make([]Mat3, len(p.F)),
		Jp:       make([]float64, len(p.Jp)),
		Material: make([]int, len(p.Material)),
	}
	copy(c.X, p.X)
	copy(c.V, p.V)
	copy(c.C, p.C)
	copy(c.F, p.F)
	copy(c.Jp, p.Jp)
	copy(c.Material, p.Material)
	return c
}

// IsValid reports whether every position and velocity is finite.
func (p *Particles) IsValid() bool {
	for i := range p.X {
		if !finite(p.X[i]) || !finite(p.V[i]) {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned box around all particles.
func (p *Particles) Bounds() r3.Box {
	if len(p.X) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: p.X[0], Max: p.X[0]}
	for _, x := range p.X[1:] {
		b.Min = r3.Vec{X: math.Min(b.Min.X, x.X), Y: math.Min(b.Min.Y, x.Y), Z: math.Min(b.Min.Z, x.Z)}
		b.Max = r3.Vec{X: math.Max(b.Max.X, x.X), Y: math.Max(b.Max.Y, x.Y), Z: math.Max(b.Max.Z, x.Z)}
	}
	return b
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
