package config

import (
	"maps"
	"slices"
	"sort"
	"strings"
)

const DefaultBunnySource = "bunny_point.obj"

// twoCubes places two 0.2 cubes offset diagonally, the upper one falling
// onto the lower.
func twoCubes(material string) []BodyConfig {
	bodies := make([]BodyConfig, 2)
	for g := 0; g < 2; g++ {
		off := float64(g)
		bodies[g] = BodyConfig{
			Name:     []string{"lower", "upper"}[g],
			Shape:    "cube",
			Min:      Vec3{0.3 + 0.1*off, 0.05 + 0.32*off, 0.3 + 0.1*off},
			Size:     Vec3{0.2, 0.2, 0.2},
			Count:    DefaultCount,
			Material: material,
		}
	}
	return bodies
}

func jelly(e float64) MaterialConfig {
	return MaterialConfig{Kind: "jelly", Youngs: e, Poisson: DefaultPoisson}
}

func preset(name string, mats map[string]MaterialConfig, bodies []BodyConfig) *Config {
	c := DefaultConfig()
	c.Name = name
	c.Materials = mats
	c.Bodies = bodies
	return c
}

var Presets = map[string]*Config{
	"two_cubes": preset("two_cubes",
		map[string]MaterialConfig{"jelly": jelly(DefaultYoungs)},
		twoCubes("jelly"),
	),
	"bunny": preset("bunny",
		map[string]MaterialConfig{"jelly": jelly(DefaultYoungs)},
		[]BodyConfig{{
			Name: "bunny", Shape: "points", Source: DefaultBunnySource,
			Center: Vec3{0.5, 0.35, 0.5}, Extent: 0.4, Material: "jelly",
		}},
	),
	"jelly_drop": preset("jelly_drop",
		map[string]MaterialConfig{"jelly": jelly(DefaultYoungs)},
		[]BodyConfig{{
			Name: "block", Shape: "cube", Min: Vec3{0.35, 0.55, 0.35}, Size: Vec3{0.3, 0.15, 0.3},
			Count: 6000, Velocity: Vec3{0, -2, 0}, Material: "jelly",
		}},
	),
	"snow_ball": preset("snow_ball",
		map[string]MaterialConfig{"snow": {Kind: "snow", Youngs: 2e3, Poisson: DefaultPoisson, Hardening: 10}},
		[]BodyConfig{{
			Name: "ball", Shape: "cube", Min: Vec3{0.15, 0.4, 0.4}, Size: Vec3{0.2, 0.2, 0.2},
			Count: 6000, Velocity: Vec3{3, 0, 0}, Material: "snow",
		}},
	),
	"fluid_dam": preset("fluid_dam",
		map[string]MaterialConfig{"water": {Kind: "fluid", Youngs: DefaultYoungs, Poisson: DefaultPoisson}},
		[]BodyConfig{{
			Name: "column", Shape: "cube", Min: Vec3{0.05, 0.05, 0.05}, Size: Vec3{0.3, 0.5, 0.9},
			Count: 12000, Material: "water",
		}},
	),
}

// Normalize maps a scene name to its registry key ("two-cubes" -> "two_cubes").
func Normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[Normalize(name)]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone deep-copies the materials and bodies.
func (c *Config) Clone() *Config {
	out := *c
	out.Materials = maps.Clone(c.Materials)
	out.Bodies = slices.Clone(c.Bodies)
	return &out
}
