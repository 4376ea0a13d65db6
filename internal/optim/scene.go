package optim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/mpmsim/internal/compute"
	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/metrics"
	"github.com/san-kum/mpmsim/internal/scene"
	"github.com/san-kum/mpmsim/internal/sim"
)

var ErrUnknownParam = errors.New("optim: unknown parameter")

var setters = map[string]func(cfg *config.Config, v float64){
	"youngs":    func(c *config.Config, v float64) { eachMaterial(c, func(m *config.MaterialConfig) { m.Youngs = v }) },
	"poisson":   func(c *config.Config, v float64) { eachMaterial(c, func(m *config.MaterialConfig) { m.Poisson = v }) },
	"hardening": func(c *config.Config, v float64) { eachMaterial(c, func(m *config.MaterialConfig) { m.Hardening = v }) },
	"density":   func(c *config.Config, v float64) { c.Density = v },
	"gravity_x": func(c *config.Config, v float64) { c.Gravity[0] = v },
	"gravity_y": func(c *config.Config, v float64) { c.Gravity[1] = v },
	"gravity_z": func(c *config.Config, v float64) { c.Gravity[2] = v },
	"speed_x":   func(c *config.Config, v float64) { eachBody(c, func(b *config.BodyConfig) { b.Velocity[0] = v }) },
	"speed_y":   func(c *config.Config, v float64) { eachBody(c, func(b *config.BodyConfig) { b.Velocity[1] = v }) },
	"speed_z":   func(c *config.Config, v float64) { eachBody(c, func(b *config.BodyConfig) { b.Velocity[2] = v }) },
}

func eachMaterial(c *config.Config, fn func(m *config.MaterialConfig)) {
	for name, m := range c.Materials {
		fn(&m)
		c.Materials[name] = m
	}
}

func eachBody(c *config.Config, fn func(b *config.BodyConfig)) {
	for i := range c.Bodies {
		fn(&c.Bodies[i])
	}
}

// Params lists the names ApplyParam understands.
func Params() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyParam sets a sweepable parameter on every material or body it
// concerns.
func ApplyParam(cfg *config.Config, name string, v float64) error {
	set, ok := setters[name]
	if !ok {
		return fmt.Errorf("%w %q (available: %s)", ErrUnknownParam, name, strings.Join(Params(), ", "))
	}
	set(cfg, v)
	return nil
}

// ParseRange parses "name=v1,v2,...".
func ParseRange(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("parameter range %q: want name=v1,v2,...", s)
	}
	if _, ok := setters[name]; !ok {
		return "", nil, fmt.Errorf("%w %q", ErrUnknownParam, name)
	}
	parts := strings.Split(list, ",")
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		vals[i] = v
	}
	return name, vals, nil
}

// SceneObjective runs base with the trial parameters for frames frames and
// scores it by the final value of metric, negated when maximize is set.
func SceneObjective(base *config.Config, frames int, metric string, maximize bool, backend compute.Backend) Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := base.Clone()
		cfg.Frames = frames
		for name, v := range params {
			if err := ApplyParam(cfg, name, v); err != nil {
				return 0, err
			}
		}
		sc, err := scene.New(cfg, backend)
		if err != nil {
			return 0, err
		}

		s := sim.New(sc.Solver)
		for _, m := range metrics.Defaults(sc.Solver.Params()) {
			s.AddMetric(m)
		}
		result, err := s.Run(ctx, sim.Config{
			Frames:           frames,
			SubstepsPerFrame: sim.SubstepsFor(sc.Config.FrameDt, sc.Config.Dt),
			ValidateState:    true,
		})
		if err != nil {
			return 0, err
		}
		val, ok := result.Metrics[metric]
		if !ok {
			return 0, fmt.Errorf("no metric %q", metric)
		}
		if maximize {
			val = -val
		}
		return val, nil
	}
}
