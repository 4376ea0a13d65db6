package mpm

import (
	"fmt"
	"math"
	"strings"
)

// MaterialKind selects the constitutive model. The numbering matches the
// material ids written to stats and OBJ headers.
type MaterialKind int

const (
	Fluid MaterialKind = iota
	Jelly
	Snow
)

const (
	DefaultYoungs    = 1e3
	DefaultPoisson   = 0.2
	DefaultHardening = 10.0

	snowCompression = 2.5e-2
	snowStretch     = 4.5e-3
)

var kindNames = map[MaterialKind]string{
	Fluid: "fluid",
	Jelly: "jelly",
	Snow:  "snow",
}

func (k MaterialKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("material(%d)", int(k))
}

func ParseMaterialKind(s string) (MaterialKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fluid", "water":
		return Fluid, nil
	case "jelly", "elastic", "":
		return Jelly, nil
	case "snow":
		return Snow, nil
	}
	return 0, fmt.Errorf("%w: unknown material kind %q", ErrInvalidParams, s)
}

type Material struct {
	Name      string
	Kind      MaterialKind
	E         float64 // Young's modulus
	Nu        float64 // Poisson's ratio
	Hardening float64 // snow only
}

func DefaultMaterial() Material {
	return Material{Name: "jelly", Kind: Jelly, E: DefaultYoungs, Nu: DefaultPoisson, Hardening: DefaultHardening}
}

// Lame returns the first and second Lame parameters (mu, lambda).
func (m Material) Lame() (mu, lambda float64) {
	mu = m.E / (2 * (1 + m.Nu))
	lambda = m.E * m.Nu / ((1 + m.Nu) * (1 - 2*m.Nu))
	return mu, lambda
}

func (m Material) Validate() error {
	if m.E <= 0 {
		return fmt.Errorf("%w: material %q: youngs modulus must be positive, got %g", ErrInvalidParams, m.Name, m.E)
	}
	if m.Nu <= -1 || m.Nu >= 0.5 {
		return fmt.Errorf("%w: material %q: poisson ratio must be in (-1, 0.5), got %g", ErrInvalidParams, m.Name, m.Nu)
	}
	if _, ok := kindNames[m.Kind]; !ok {
		return fmt.Errorf("%w: material %q: unknown kind %d", ErrInvalidParams, m.Name, int(m.Kind))
	}
	return nil
}

// kirchhoff returns the Kirchhoff stress tau = P F^T of one particle and
// applies the plastic or fluid projection of f and jp in place.
func (m Material) kirchhoff(mu0, la0 float64, f *Mat3, jp *float64, ws *svdWorkspace) Mat3 {
	h := 1.0
	if m.Kind == Snow {
		h = math.Exp(m.Hardening * (1 - *jp))
		h = math.Max(0.1, math.Min(5, h))
	}
	mu, la := mu0*h, la0*h
	if m.Kind == Fluid {
		mu = 0
	}

	u, sig, v, ok := ws.decompose(*f)
	if !ok {
		return Mat3{}
	}

	j := 1.0
	for d := 0; d < 3; d++ {
		newSig := sig[d]
		if m.Kind == Snow {
			newSig = math.Min(math.Max(sig[d], 1-snowCompression), 1+snowStretch)
			*jp *= sig[d] / newSig
		}
		sig[d] = newSig
		j *= newSig
	}

	switch m.Kind {
	case Fluid:
		*f = Identity().Scale(math.Cbrt(j))
	case Snow:
		*f = u.Mul(Diag(sig[0], sig[1], sig[2])).Mul(v.T())
	}

	r := u.Mul(v.T())
	tau := f.Sub(r).Mul(f.T()).Scale(2 * mu)
	return tau.Add(Identity().Scale(la * j * (j - 1)))
}
