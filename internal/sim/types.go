package sim

import (
	"math"
	"time"

	"github.com/san-kum/mpmsim/internal/mpm"
)

// Stepper advances a particle system by whole substeps. *mpm.Solver
// satisfies it.
type Stepper interface {
	Step(n int)
	Time() float64
	Particles() *mpm.Particles
}

type Metric interface {
	Name() string
	Observe(frame int, t float64, p *mpm.Particles)
	Value() float64
	Reset()
}

// Observer is notified once per frame, starting with frame 0 (the initial
// state). A non-nil error stops the run.
type Observer interface {
	OnFrame(frame int, t float64, p *mpm.Particles) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(frame int, t float64, p *mpm.Particles) error

func (f ObserverFunc) OnFrame(frame int, t float64, p *mpm.Particles) error { return f(frame, t, p) }

type Config struct {
	Frames           int
	SubstepsPerFrame int
	ValidateState    bool
}

const DefaultFrameDt = 2e-3

func DefaultConfig(dt float64) Config {
	return Config{
		Frames:           200,
		SubstepsPerFrame: SubstepsFor(DefaultFrameDt, dt),
		ValidateState:    true,
	}
}

// SubstepsFor returns how many substeps of dt fit in one frame, at least one.
func SubstepsFor(frameDt, dt float64) int {
	if dt <= 0 {
		return 1
	}
	// tolerate 2e-3/1e-4 landing just below 20
	n := int(math.Floor(frameDt/dt + 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

type Result struct {
	FramesWritten int
	Times         []float64
	// Series holds every metric's value after each frame.
	Series  map[string][]float64
	Metrics map[string]float64
	Elapsed time.Duration
	Errors  []error
}
