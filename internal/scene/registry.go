package scene

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/san-kum/mpmsim/internal/compute"
	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/mpm"
)

type Registry struct {
	samplers map[string]Sampler
}

func NewRegistry() *Registry {
	r := &Registry{
		samplers: make(map[string]Sampler),
	}

	r.samplers["cube"] = sampleCube
	r.samplers["points"] = samplePoints
	r.samplers["mesh"] = sampleMesh

	return r
}

func (r *Registry) Register(shape string, s Sampler) { r.samplers[shape] = s }

func (r *Registry) GetSampler(shape string) (Sampler, error) {
	s, ok := r.samplers[shape]
	if !ok {
		return nil, fmt.Errorf("unknown body shape: %s", shape)
	}
	return s, nil
}

func (r *Registry) ListShapes() []string {
	names := make([]string, 0, len(r.samplers))
	for name := range r.samplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize maps a scene name to its registry key ("two-cubes" -> "two_cubes").
func Normalize(name string) string { return config.Normalize(name) }

// Lookup returns the built-in scene configuration with the given name.
func Lookup(name string) (*config.Config, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("%w %q (available: %v)", config.ErrUnknownPreset, name, config.ListPresets())
	}
	return cfg, nil
}

// Materials converts the configured materials into a solver table, ordered by
// name, and returns the index of each name.
func Materials(cfg *config.Config) ([]mpm.Material, map[string]int, error) {
	names := make([]string, 0, len(cfg.Materials))
	for name := range cfg.Materials {
		names = append(names, name)
	}
	sort.Strings(names)

	mats := make([]mpm.Material, len(names))
	index := make(map[string]int, len(names))
	for i, name := range names {
		mc := cfg.Materials[name]
		kind, err := mpm.ParseMaterialKind(mc.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("material %q: %w", name, err)
		}
		h := mc.Hardening
		if h == 0 {
			h = mpm.DefaultHardening
		}
		mats[i] = mpm.Material{Name: name, Kind: kind, E: mc.Youngs, Nu: mc.Poisson, Hardening: h}
		index[name] = i
	}
	return mats, index, nil
}

// Build samples every body of a resolved configuration into one particle set.
func (r *Registry) Build(cfg *config.Config, rng *rand.Rand) (*mpm.Particles, []mpm.Material, error) {
	mats, index, err := Materials(cfg)
	if err != nil {
		return nil, nil, err
	}

	parts := mpm.NewParticles(0)
	for i, b := range cfg.Bodies {
		sample, err := r.GetSampler(b.Shape)
		if err != nil {
			return nil, nil, fmt.Errorf("body %d: %w", i, err)
		}
		m, ok := index[b.Material]
		if !ok {
			return nil, nil, fmt.Errorf("body %d: unknown material %q", i, b.Material)
		}
		pts, err := sample(b, rng)
		if err != nil {
			return nil, nil, fmt.Errorf("body %d (%s): %w", i, b.Name, err)
		}
		v := b.Velocity.R3()
		for _, x := range pts {
			parts.Append(x, v, m)
		}
	}
	return parts, mats, nil
}

// Build samples cfg with the default samplers.
func Build(cfg *config.Config, rng *rand.Rand) (*mpm.Particles, []mpm.Material, error) {
	return NewRegistry().Build(cfg, rng)
}

// Params converts a resolved configuration into solver parameters.
func Params(cfg *config.Config) mpm.Params {
	return mpm.Params{
		GridRes:        cfg.Grid,
		Dt:             cfg.Dt,
		ParticleVolume: cfg.ParticleVolume,
		Density:        cfg.Density,
		Gravity:        cfg.Gravity.R3(),
		BoundaryCells:  cfg.Boundary,
	}
}

// Scene is a built solver together with the configuration and the initial
// particles it was built from.
type Scene struct {
	Config  *config.Config
	Solver  *mpm.Solver
	initial *mpm.Particles
}

// New resolves and validates cfg, samples its bodies with a generator seeded
// from cfg.Seed and builds a solver on backend (nil for the default backend).
func New(cfg *config.Config, backend compute.Backend) (*Scene, error) {
	cfg = cfg.Resolved()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	parts, mats, err := Build(cfg, rng)
	if err != nil {
		return nil, err
	}
	initial := parts.Clone()

	solver, err := mpm.NewSolver(Params(cfg), parts, mats, backend)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", cfg.Name, err)
	}
	return &Scene{Config: cfg, Solver: solver, initial: initial}, nil
}

// Reset restores the initial particles and rewinds the solver clock.
func (s *Scene) Reset() error {
	return s.Solver.Reset(s.initial.Clone())
}
