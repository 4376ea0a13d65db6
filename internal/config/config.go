package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultQuality  = 1
	DefaultFrameDt  = 2e-3
	DefaultFrames   = 200
	DefaultBoundary = 3
	DefaultDensity  = 1.0
	DefaultGravityY = -9.8
	DefaultCount    = 4500
	DefaultYoungs   = 1e3
	DefaultPoisson  = 0.2
	DefaultEvery    = 1
	DefaultOutDir   = "frames"

	baseGrid = 128
	baseDt   = 1e-4
)

var (
	ErrInvalidConfig     = errors.New("config: invalid configuration")
	ErrUnsupportedFormat = errors.New("config: unsupported file format")
	ErrUnknownPreset     = errors.New("config: unknown preset")
)

type Config struct {
	Name           string                    `yaml:"name" toml:"name"`
	Quality        int                       `yaml:"quality" toml:"quality"`
	Grid           int                       `yaml:"grid,omitempty" toml:"grid,omitempty"`
	Dt             float64                   `yaml:"dt,omitempty" toml:"dt,omitempty"`
	FrameDt        float64                   `yaml:"frame_dt" toml:"frame_dt"`
	Frames         int                       `yaml:"frames" toml:"frames"`
	Gravity        Vec3                      `yaml:"gravity" toml:"gravity"`
	Boundary       int                       `yaml:"boundary" toml:"boundary"`
	Density        float64                   `yaml:"density" toml:"density"`
	ParticleVolume float64                   `yaml:"particle_volume,omitempty" toml:"particle_volume,omitempty"`
	Seed           int64                     `yaml:"seed" toml:"seed"`
	Materials      map[string]MaterialConfig `yaml:"materials" toml:"materials"`
	Bodies         []BodyConfig              `yaml:"bodies" toml:"bodies"`
	Output         OutputConfig              `yaml:"output" toml:"output"`
}

type MaterialConfig struct {
	Kind      string  `yaml:"kind" toml:"kind"`
	Youngs    float64 `yaml:"youngs" toml:"youngs"`
	Poisson   float64 `yaml:"poisson" toml:"poisson"`
	Hardening float64 `yaml:"hardening,omitempty" toml:"hardening,omitempty"`
}

// BodyConfig describes one initial body. Cubes use Min, Size and Count;
// point clouds and meshes load Source and are scaled so their largest edge
// is Extent, centred on Center.
type BodyConfig struct {
	Name     string  `yaml:"name" toml:"name"`
	Shape    string  `yaml:"shape" toml:"shape"`
	Min      Vec3    `yaml:"min,omitempty" toml:"min,omitempty"`
	Size     Vec3    `yaml:"size,omitempty" toml:"size,omitempty"`
	Count    int     `yaml:"count,omitempty" toml:"count,omitempty"`
	Source   string  `yaml:"source,omitempty" toml:"source,omitempty"`
	Center   Vec3    `yaml:"center,omitempty" toml:"center,omitempty"`
	Extent   float64 `yaml:"extent,omitempty" toml:"extent,omitempty"`
	Spacing  float64 `yaml:"spacing,omitempty" toml:"spacing,omitempty"`
	Jitter   float64 `yaml:"jitter,omitempty" toml:"jitter,omitempty"`
	Velocity Vec3    `yaml:"velocity,omitempty" toml:"velocity,omitempty"`
	Material string  `yaml:"material" toml:"material"`
}

type OutputConfig struct {
	Dir     string `yaml:"dir" toml:"dir"`
	Every   int    `yaml:"every" toml:"every"`
	Pattern string `yaml:"pattern,omitempty" toml:"pattern,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "two_cubes",
		Quality:  DefaultQuality,
		FrameDt:  DefaultFrameDt,
		Frames:   DefaultFrames,
		Gravity:  Vec3{0, DefaultGravityY, 0},
		Boundary: DefaultBoundary,
		Density:  DefaultDensity,
		Materials: map[string]MaterialConfig{
			"jelly": {Kind: "jelly", Youngs: DefaultYoungs, Poisson: DefaultPoisson},
		},
		Bodies: twoCubes("jelly"),
		Output: OutputConfig{Dir: DefaultOutDir, Every: DefaultEvery},
	}
}

// Load reads a yaml, toml or gcfg (.ini) file over the defaults. Bodies and
// materials given in the file replace the default ones rather than merging.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Bodies = nil
	cfg.Materials = nil

	switch format(path) {
	case "yaml":
		err = yaml.Unmarshal(data, cfg)
	case "toml":
		_, err = toml.Decode(string(data), cfg)
	case "gcfg":
		err = decodeGcfg(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if len(cfg.Materials) == 0 {
		cfg.Materials = DefaultConfig().Materials
	}
	if len(cfg.Bodies) == 0 {
		cfg.Bodies = DefaultConfig().Bodies
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return cfg, nil
}

// Save writes cfg as yaml or toml, chosen by extension.
func Save(path string, cfg *Config) error {
	var data []byte
	switch format(path) {
	case "yaml":
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		data = out
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		return fmt.Errorf("%w for writing: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return os.WriteFile(path, data, 0644)
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	case ".ini", ".gcfg", ".cfg":
		return "gcfg"
	}
	return ""
}

// Resolved returns a copy with the derived values filled in: grid 128*quality,
// dt 1e-4/quality and particle volume (dx/2)^3 unless set explicitly.
func (c *Config) Resolved() *Config {
	r := *c
	if r.Quality < 1 {
		r.Quality = DefaultQuality
	}
	if r.Grid == 0 {
		r.Grid = baseGrid * r.Quality
	}
	if r.Dt == 0 {
		r.Dt = baseDt / float64(r.Quality)
	}
	if r.ParticleVolume == 0 {
		r.ParticleVolume = math.Pow(0.5/float64(r.Grid), 3)
	}
	if r.FrameDt == 0 {
		r.FrameDt = DefaultFrameDt
	}
	if r.Output.Every < 1 {
		r.Output.Every = DefaultEvery
	}
	if r.Density == 0 {
		r.Density = DefaultDensity
	}
	r.Bodies = make([]BodyConfig, len(c.Bodies))
	for i, b := range c.Bodies {
		if b.Shape == "" {
			b.Shape = "cube"
		}
		if b.Shape == "cube" && b.Count == 0 {
			b.Count = DefaultCount * r.Quality * r.Quality
		}
		r.Bodies[i] = b
	}
	return &r
}

// Validate checks a resolved configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Grid < 8 {
		errs = append(errs, fmt.Errorf("grid must be at least 8, got %d", c.Grid))
	}
	if c.Dt <= 0 {
		errs = append(errs, fmt.Errorf("dt must be positive, got %g", c.Dt))
	}
	if c.FrameDt < c.Dt {
		errs = append(errs, fmt.Errorf("frame_dt %g is shorter than dt %g", c.FrameDt, c.Dt))
	}
	if c.Frames < 0 {
		errs = append(errs, fmt.Errorf("frames must not be negative, got %d", c.Frames))
	}
	if c.Boundary < 0 || c.Boundary >= c.Grid/2 {
		errs = append(errs, fmt.Errorf("boundary must be in [0, %d), got %d", c.Grid/2, c.Boundary))
	}
	if c.Density <= 0 {
		errs = append(errs, fmt.Errorf("density must be positive, got %g", c.Density))
	}
	if len(c.Bodies) == 0 {
		errs = append(errs, errors.New("at least one body is required"))
	}
	for name, m := range c.Materials {
		if m.Youngs <= 0 {
			errs = append(errs, fmt.Errorf("material %q: youngs must be positive", name))
		}
		if m.Poisson <= -1 || m.Poisson >= 0.5 {
			errs = append(errs, fmt.Errorf("material %q: poisson must be in (-1, 0.5)", name))
		}
	}
	for i, b := range c.Bodies {
		if err := b.validate(c.Materials); err != nil {
			errs = append(errs, fmt.Errorf("body %d (%s): %w", i, b.Name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (b BodyConfig) validate(materials map[string]MaterialConfig) error {
	if _, ok := materials[b.Material]; !ok {
		return fmt.Errorf("unknown material %q", b.Material)
	}
	switch b.Shape {
	case "cube":
		if b.Count <= 0 {
			return fmt.Errorf("count must be positive, got %d", b.Count)
		}
		for d := 0; d < 3; d++ {
			if b.Size[d] <= 0 {
				return fmt.Errorf("size must be positive, got %v", b.Size)
			}
		}
	case "points", "mesh":
		if b.Source == "" {
			return errors.New("source file is required")
		}
		if b.Extent <= 0 {
			return fmt.Errorf("extent must be positive, got %g", b.Extent)
		}
		if b.Shape == "mesh" && b.Spacing <= 0 {
			return fmt.Errorf("spacing must be positive, got %g", b.Spacing)
		}
	default:
		return fmt.Errorf("unknown shape %q", b.Shape)
	}
	return nil
}
