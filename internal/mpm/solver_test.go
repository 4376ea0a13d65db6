package mpm

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mpmsim/internal/compute"
)

func testParams() Params {
	p := DefaultParams(1)
	p.GridRes = 16
	p.ParticleVolume = math.Pow(p.Dx()*0.5, 3)
	return p
}

func cube(n int, min r3.Vec, size float64, v r3.Vec, seed int64) *Particles {
	rnd := rand.New(rand.NewSource(seed))
	parts := NewParticles(n)
	for i := 0; i < n; i++ {
		x := r3.Vec{
			X: min.X + rnd.Float64()*size,
			Y: min.Y + rnd.Float64()*size,
			Z: min.Z + rnd.Float64()*size,
		}
		parts.Append(x, v, 0)
	}
	return parts
}

var _ = Describe("Solver", func() {
	var params Params

	BeforeEach(func() {
		params = testParams()
	})

	Describe("construction", func() {
		It("rejects invalid parameters", func() {
			params.Dt = 0
			_, err := NewSolver(params, cube(10, r3.Vec{X: 0.4, Y: 0.4, Z: 0.4}, 0.1, r3.Vec{}, 1), nil, nil)
			Expect(errors.Is(err, ErrInvalidParams)).To(BeTrue())
		})

		It("rejects a boundary wider than half the grid", func() {
			params.BoundaryCells = params.GridRes / 2
			_, err := NewSolver(params, cube(10, r3.Vec{X: 0.4, Y: 0.4, Z: 0.4}, 0.1, r3.Vec{}, 1), nil, nil)
			Expect(errors.Is(err, ErrInvalidParams)).To(BeTrue())
		})

		It("rejects particles outside the domain interior", func() {
			parts := NewParticles(1)
			parts.Append(r3.Vec{X: 0.999, Y: 0.5, Z: 0.5}, r3.Vec{}, 0)
			_, err := NewSolver(params, parts, nil, nil)
			Expect(errors.Is(err, ErrOutOfDomain)).To(BeTrue())
		})

		It("rejects unknown material indices", func() {
			parts := NewParticles(1)
			parts.Append(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, r3.Vec{}, 3)
			_, err := NewSolver(params, parts, []Material{DefaultMaterial()}, nil)
			Expect(errors.Is(err, ErrInvalidParams)).To(BeTrue())
		})

		It("rejects an empty particle set", func() {
			_, err := NewSolver(params, NewParticles(0), nil, nil)
			Expect(err).To(MatchError(ErrNoParticles))
		})
	})

	Describe("particle to grid transfer", func() {
		It("conserves mass", func() {
			parts := cube(500, r3.Vec{X: 0.3, Y: 0.3, Z: 0.3}, 0.3, r3.Vec{X: 1}, 7)
			s, err := NewSolver(params, parts, nil, compute.NewCPUBackend(4))
			Expect(err).NotTo(HaveOccurred())

			s.Substep()
			expected := float64(parts.Len()) * s.ParticleMass()
			Expect(s.Grid().TotalMass()).To(BeNumerically("~", expected, expected*1e-9))
		})
	})

	Describe("dynamics", func() {
		It("keeps a body at rest without gravity", func() {
			params.Gravity = r3.Vec{}
			parts := cube(300, r3.Vec{X: 0.4, Y: 0.4, Z: 0.4}, 0.2, r3.Vec{}, 3)
			start := parts.Clone()
			s, err := NewSolver(params, parts, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			s.Step(20)
			for p := range parts.X {
				Expect(r3.Norm(parts.V[p])).To(BeNumerically("<", 1e-9))
				Expect(r3.Norm(r3.Sub(parts.X[p], start.X[p]))).To(BeNumerically("<", 1e-9))
				Expect(matClose(parts.F[p], Identity(), 1e-9)).To(BeTrue())
			}
			Expect(s.Time()).To(BeNumerically("~", 20*params.Dt, 1e-15))
			Expect(s.Substeps()).To(Equal(20))
		})

		It("accelerates a free body with gravity", func() {
			parts := cube(300, r3.Vec{X: 0.4, Y: 0.5, Z: 0.4}, 0.2, r3.Vec{}, 5)
			s, err := NewSolver(params, parts, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			steps := 50
			s.Step(steps)
			want := params.Gravity.Y * params.Dt * float64(steps)
			for p := range parts.V {
				Expect(parts.V[p].Y).To(BeNumerically("~", want, math.Abs(want)*1e-6))
				Expect(parts.V[p].X).To(BeNumerically("~", 0, 1e-9))
			}
		})

		It("keeps particles inside the domain when thrown at a wall", func() {
			params.Gravity = r3.Vec{}
			parts := cube(400, r3.Vec{X: 0.25, Y: 0.4, Z: 0.4}, 0.1, r3.Vec{X: -5}, 11)
			s, err := NewSolver(params, parts, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			s.Step(400)
			dx := params.Dx()
			Expect(parts.IsValid()).To(BeTrue())
			for _, x := range parts.X {
				Expect(x.X).To(BeNumerically(">=", dx))
			}
		})

		It("produces identical results for any worker count", func() {
			parts1 := cube(400, r3.Vec{X: 0.3, Y: 0.4, Z: 0.3}, 0.3, r3.Vec{X: 0.5, Y: -1}, 13)
			parts4 := parts1.Clone()

			s1, err := NewSolver(params, parts1, nil, compute.NewCPUBackend(1))
			Expect(err).NotTo(HaveOccurred())
			s4, err := NewSolver(params, parts4, nil, compute.NewCPUBackend(4))
			Expect(err).NotTo(HaveOccurred())

			s1.Step(10)
			s4.Step(10)
			Expect(parts4.X).To(Equal(parts1.X))
			Expect(parts4.V).To(Equal(parts1.V))
		})
	})

	Describe("materials", func() {
		It("derives lame parameters from E and nu", func() {
			mu, la := DefaultMaterial().Lame()
			Expect(mu).To(BeNumerically("~", 1e3/2.4, 1e-9))
			Expect(la).To(BeNumerically("~", 1e3*0.2/(1.2*0.6), 1e-9))
		})

		It("hardens snow that was compressed", func() {
			snow := Material{Name: "snow", Kind: Snow, E: 1e3, Nu: 0.2, Hardening: 10}
			mu, la := snow.Lame()
			f := Diag(0.9, 0.9, 0.9)
			jp := 1.0
			snow.kirchhoff(mu, la, &f, &jp, newSVDWorkspace())
			Expect(jp).To(BeNumerically("<", 1))
			Expect(f.Det()).To(BeNumerically("~", math.Pow(1-snowCompression, 3), 1e-9))
		})

		It("resets fluid deformation to an isotropic scaling", func() {
			water := Material{Name: "water", Kind: Fluid, E: 1e3, Nu: 0.2}
			mu, la := water.Lame()
			f := Mat3{{1.1, 0.05, 0}, {0, 0.95, 0}, {0, 0.02, 1}}
			det := f.Det()
			jp := 1.0
			tau := water.kirchhoff(mu, la, &f, &jp, newSVDWorkspace())
			c := math.Cbrt(det)
			Expect(f[0][0]).To(BeNumerically("~", c, 1e-9))
			Expect(f[0][1]).To(BeNumerically("~", 0, 1e-12))
			Expect(tau[0][1]).To(BeNumerically("~", 0, 1e-9))
		})

		It("parses material names", func() {
			k, err := ParseMaterialKind("Snow")
			Expect(err).NotTo(HaveOccurred())
			Expect(k).To(Equal(Snow))

			_, err = ParseMaterialKind("lava")
			Expect(errors.Is(err, ErrInvalidParams)).To(BeTrue())
		})

		It("validates material ranges", func() {
			m := DefaultMaterial()
			m.Nu = 0.5
			Expect(errors.Is(m.Validate(), ErrInvalidParams)).To(BeTrue())
		})
	})
})
