package metrics

import "github.com/san-kum/mpmsim/internal/mpm"

// Stability is the fraction of frames in which no particle moved faster than
// threshold. With threshold dx/dt it flags frames that broke the CFL limit.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(frame int, t float64, p *mpm.Particles) {
	s.samples++
	if maxSpeed(p) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
