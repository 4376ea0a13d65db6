package sim

import (
	"context"
	"fmt"
	"time"
)

type Simulator struct {
	stepper   Stepper
	metrics   []Metric
	observers []Observer
}

func New(stepper Stepper) *Simulator {
	return &Simulator{
		stepper:   stepper,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) Stepper() Stepper       { return s.stepper }

// Run reports frame 0 and then advances cfg.Frames frames of
// cfg.SubstepsPerFrame substeps each. A partial Result is returned alongside
// any error.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{
		Times:   make([]float64, 0, cfg.Frames+1),
		Series:  make(map[string][]float64, len(s.metrics)),
		Metrics: make(map[string]float64, len(s.metrics)),
		Errors:  make([]error, 0),
	}
	defer func() { result.Elapsed = time.Since(start) }()

	for _, m := range s.metrics {
		m.Reset()
	}

	for frame := 0; frame <= cfg.Frames; frame++ {
		if frame > 0 {
			select {
			case <-ctx.Done():
				err := fmt.Errorf("%w at frame %d: %w", ErrCanceled, frame, ctx.Err())
				result.Errors = append(result.Errors, err)
				return result, err
			default:
			}
			s.stepper.Step(cfg.SubstepsPerFrame)
		}

		t := s.stepper.Time()
		parts := s.stepper.Particles()
		if cfg.ValidateState && !parts.IsValid() {
			err := &SimulationError{Frame: frame, Time: t, Wrapped: ErrInvalidState}
			result.Errors = append(result.Errors, err)
			s.collect(result)
			return result, err
		}

		for _, m := range s.metrics {
			m.Observe(frame, t, parts)
			result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
		}
		for _, obs := range s.observers {
			if err := obs.OnFrame(frame, t, parts); err != nil {
				err = &SimulationError{Frame: frame, Time: t, Wrapped: err}
				result.Errors = append(result.Errors, err)
				s.collect(result)
				return result, err
			}
		}

		result.Times = append(result.Times, t)
		result.FramesWritten++
	}

	s.collect(result)
	return result, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Frames < 0 {
		return fmt.Errorf("%w: frames must not be negative, got %d", ErrInvalidConfig, cfg.Frames)
	}
	if cfg.SubstepsPerFrame < 1 {
		return fmt.Errorf("%w: substeps per frame must be positive, got %d", ErrInvalidConfig, cfg.SubstepsPerFrame)
	}
	return nil
}
