package mpm

import (
	"fmt"
	"math"

	"github.com/san-kum/mpmsim/internal/compute"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultGridRes  = 128
	DefaultDt       = 1e-4
	DefaultDensity  = 1.0
	DefaultBoundary = 3
	DefaultGravity  = -9.8

	minGridRes = 8
	// particles per worker chunk in the particle passes
	particleChunk = 512
	nodeChunk     = 4096
)

type Params struct {
	GridRes        int
	Dt             float64
	ParticleVolume float64
	Density        float64
	Gravity        r3.Vec
	BoundaryCells  int
}

// DefaultParams scales grid resolution and timestep with quality: grid 128*q,
// dt 1e-4/q and a particle volume of (dx/2)^3.
func DefaultParams(quality int) Params {
	if quality < 1 {
		quality = 1
	}
	n := DefaultGridRes * quality
	dx := 1.0 / float64(n)
	return Params{
		GridRes:        n,
		Dt:             DefaultDt / float64(quality),
		ParticleVolume: math.Pow(dx*0.5, 3),
		Density:        DefaultDensity,
		Gravity:        r3.Vec{Y: DefaultGravity},
		BoundaryCells:  DefaultBoundary,
	}
}

func (p Params) Dx() float64 { return 1.0 / float64(p.GridRes) }

func (p Params) ParticleMass() float64 { return p.ParticleVolume * p.Density }

func (p Params) Validate() error {
	if p.GridRes < minGridRes {
		return fmt.Errorf("%w: grid resolution must be at least %d, got %d", ErrInvalidParams, minGridRes, p.GridRes)
	}
	if p.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidParams, p.Dt)
	}
	if p.ParticleVolume <= 0 {
		return fmt.Errorf("%w: particle volume must be positive, got %g", ErrInvalidParams, p.ParticleVolume)
	}
	if p.Density <= 0 {
		return fmt.Errorf("%w: density must be positive, got %g", ErrInvalidParams, p.Density)
	}
	if p.BoundaryCells < 0 || p.BoundaryCells >= p.GridRes/2 {
		return fmt.Errorf("%w: boundary must be in [0, %d), got %d", ErrInvalidParams, p.GridRes/2, p.BoundaryCells)
	}
	return nil
}

// Solver advances particles with the explicit MLS-MPM scheme on a uniform
// grid covering the unit cube.
type Solver struct {
	params  Params
	dx      float64
	invDx   float64
	pMass   float64
	grid    *Grid
	parts   *Particles
	mats    []Material
	lame    [][2]float64
	backend compute.Backend

	// particle indices bucketed by the x index of their base node
	order    []int
	bucketAt []int
	baseX    []int

	time     float64
	substeps int
}

func NewSolver(params Params, parts *Particles, mats []Material, backend compute.Backend) (*Solver, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(mats) == 0 {
		mats = []Material{DefaultMaterial()}
	}
	lame := make([][2]float64, len(mats))
	for i, m := range mats {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		mu, la := m.Lame()
		lame[i] = [2]float64{mu, la}
	}
	if backend == nil {
		backend = compute.GetBackend()
	}

	s := &Solver{
		params:   params,
		dx:       params.Dx(),
		invDx:    float64(params.GridRes),
		pMass:    params.ParticleMass(),
		grid:     NewGrid(params.GridRes),
		mats:     mats,
		lame:     lame,
		backend:  backend,
		bucketAt: make([]int, params.GridRes+1),
	}
	if err := s.Reset(parts); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset replaces the particle set and rewinds the clock.
func (s *Solver) Reset(parts *Particles) error {
	if parts == nil || parts.Len() == 0 {
		return ErrNoParticles
	}
	lo, hi := s.dx, 1-2*s.dx
	for i, x := range parts.X {
		if x.X < lo || x.Y < lo || x.Z < lo || x.X > hi || x.Y > hi || x.Z > hi {
			return fmt.Errorf("%w: particle %d at (%.4f, %.4f, %.4f), interior is [%.4f, %.4f]",
				ErrOutOfDomain, i, x.X, x.Y, x.Z, lo, hi)
		}
		if m := parts.Material[i]; m < 0 || m >= len(s.mats) {
			return fmt.Errorf("%w: particle %d references material %d of %d", ErrInvalidParams, i, m, len(s.mats))
		}
	}
	s.parts = parts
	s.order = make([]int, parts.Len())
	s.baseX = make([]int, parts.Len())
	s.time = 0
	s.substeps = 0
	return nil
}

func (s *Solver) Params() Params           { return s.params }
func (s *Solver) Particles() *Particles    { return s.parts }
func (s *Solver) Grid() *Grid              { return s.grid }
func (s *Solver) Materials() []Material    { return s.mats }
func (s *Solver) Time() float64            { return s.time }
func (s *Solver) Substeps() int            { return s.substeps }
func (s *Solver) ParticleMass() float64    { return s.pMass }
func (s *Solver) Backend() compute.Backend { return s.backend }
func (s *Solver) SetGravity(g r3.Vec)      { s.params.Gravity = g }

// Step runs n substeps.
func (s *Solver) Step(n int) {
	for i := 0; i < n; i++ {
		s.Substep()
	}
}

func (s *Solver) Substep() {
	s.grid.Clear()
	s.particleToGrid()
	s.updateGrid()
	s.gridToParticle()
	s.time += s.params.Dt
	s.substeps++
}

// stencil returns the base node and the quadratic B-spline weights and
// their derivatives (in grid units) for a particle at x.
func (s *Solver) stencil(x r3.Vec) (base [3]int, fx [3]float64, w, dw [3][3]float64) {
	hi := s.params.GridRes - 3
	for d := 0; d < 3; d++ {
		xd := component(x, d) * s.invDx
		b := int(xd - 0.5)
		if b < 0 {
			b = 0
		} else if b > hi {
			b = hi
		}
		base[d] = b
		fx[d] = xd - float64(b)
	}
	w, dw = weights(fx)
	return base, fx, w, dw
}

func weights(fx [3]float64) (w, dw [3][3]float64) {
	for d := 0; d < 3; d++ {
		f := fx[d]
		w[0][d] = 0.5 * (1.5 - f) * (1.5 - f)
		w[1][d] = 0.75 - (f-1)*(f-1)
		w[2][d] = 0.5 * (f - 0.5) * (f - 0.5)
		dw[0][d] = f - 1.5
		dw[1][d] = -2 * (f - 1)
		dw[2][d] = f - 0.5
	}
	return w, dw
}

func (s *Solver) bucketParticles() {
	n := s.params.GridRes
	hi := n - 3
	clear(s.bucketAt)
	for p, x := range s.parts.X {
		b := int(x.X*s.invDx - 0.5)
		if b < 0 {
			b = 0
		} else if b > hi {
			b = hi
		}
		s.baseX[p] = b
		s.bucketAt[b+1]++
	}
	for b := 1; b <= n; b++ {
		s.bucketAt[b] += s.bucketAt[b-1]
	}
	next := make([]int, n)
	copy(next, s.bucketAt[:n])
	for p, b := range s.baseX {
		s.order[next[b]] = p
		next[b]++
	}
}

// particleToGrid scatters mass, momentum and stress impulses. A particle with
// base x index b writes to node slabs b..b+2, so buckets of equal b mod 3 never
// touch the same nodes and each colour runs in parallel without locks.
func (s *Solver) particleToGrid() {
	s.bucketParticles()
	n := s.params.GridRes
	for colour := 0; colour < 3; colour++ {
		count := (n - colour + 2) / 3
		s.backend.ParallelFor(count, 1, func(start, end int) {
			ws := newSVDWorkspace()
			for k := start; k < end; k++ {
				b := colour + 3*k
				if b >= n {
					break
				}
				for _, p := range s.order[s.bucketAt[b]:s.bucketAt[b+1]] {
					s.scatter(p, ws)
				}
			}
		})
	}
}

func (s *Solver) scatter(p int, ws *svdWorkspace) {
	parts, g := s.parts, s.grid
	dt, dx := s.params.Dt, s.dx

	base, fx, w, dw := s.stencil(parts.X[p])

	mat := parts.Material[p]
	tau := s.mats[mat].kirchhoff(s.lame[mat][0], s.lame[mat][1], &parts.F[p], &parts.Jp[p], ws)
	stress := tau.Scale(-dt * s.params.ParticleVolume)

	v, affine := parts.V[p], parts.C[p]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				weight := w[i][0] * w[j][1] * w[k][2]
				dpos := r3.Vec{
					X: (float64(i) - fx[0]) * dx,
					Y: (float64(j) - fx[1]) * dx,
					Z: (float64(k) - fx[2]) * dx,
				}
				grad := r3.Vec{
					X: s.invDx * dw[i][0] * w[j][1] * w[k][2],
					Y: s.invDx * w[i][0] * dw[j][1] * w[k][2],
					Z: s.invDx * w[i][0] * w[j][1] * dw[k][2],
				}
				momentum := r3.Scale(weight*s.pMass, r3.Add(v, affine.MulVec(dpos)))

				idx := g.Index(base[0]+i, base[1]+j, base[2]+k)
				g.Vel[idx] = r3.Add(g.Vel[idx], r3.Add(momentum, stress.MulVec(grad)))
				g.Mass[idx] += weight * s.pMass
			}
		}
	}
}

// updateGrid converts momentum to velocity, applies gravity and removes any
// velocity component pointing into a wall within BoundaryCells of it.
func (s *Solver) updateGrid() {
	g := s.grid
	n, bc := g.N, s.params.BoundaryCells
	gdt := r3.Scale(s.params.Dt, s.params.Gravity)

	s.backend.ParallelFor(len(g.Mass), nodeChunk, func(start, end int) {
		for idx := start; idx < end; idx++ {
			m := g.Mass[idx]
			if m <= 0 {
				continue
			}
			v := r3.Add(r3.Scale(1/m, g.Vel[idx]), gdt)

			i, j, k := g.Coords(idx)
			if (i < bc && v.X < 0) || (i > n-bc && v.X > 0) {
				v.X = 0
			}
			if (j < bc && v.Y < 0) || (j > n-bc && v.Y > 0) {
				v.Y = 0
			}
			if (k < bc && v.Z < 0) || (k > n-bc && v.Z > 0) {
				v.Z = 0
			}
			g.Vel[idx] = v
		}
	})
}

func (s *Solver) gridToParticle() {
	parts, g := s.parts, s.grid
	dt := s.params.Dt

	s.backend.ParallelFor(parts.Len(), particleChunk, func(start, end int) {
		for p := start; p < end; p++ {
			base, fx, w, dw := s.stencil(parts.X[p])

			var newV r3.Vec
			var newC, gradV Mat3
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					for k := 0; k < 3; k++ {
						weight := w[i][0] * w[j][1] * w[k][2]
						dpos := r3.Vec{X: float64(i) - fx[0], Y: float64(j) - fx[1], Z: float64(k) - fx[2]}
						grad := r3.Vec{
							X: s.invDx * dw[i][0] * w[j][1] * w[k][2],
							Y: s.invDx * w[i][0] * dw[j][1] * w[k][2],
							Z: s.invDx * w[i][0] * w[j][1] * dw[k][2],
						}
						gv := g.Vel[g.Index(base[0]+i, base[1]+j, base[2]+k)]

						newV = r3.Add(newV, r3.Scale(weight, gv))
						newC = newC.Add(Outer(gv, dpos).Scale(4 * s.invDx * weight))
						gradV = gradV.Add(Outer(gv, grad))
					}
				}
			}

			parts.V[p] = newV
			parts.C[p] = newC
			parts.X[p] = r3.Add(parts.X[p], r3.Scale(dt, newV))
			parts.F[p] = Identity().Add(gradV.Scale(dt)).Mul(parts.F[p])
		}
	})
}
