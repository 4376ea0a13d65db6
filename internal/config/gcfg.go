package config

import (
	"sort"

	"gopkg.in/gcfg.v1"
)

// gcfgFile is the ini layout:
//
//	[scene]
//	quality = 1
//	gravity = 0 -9.8 0
//	[material "jelly"]
//	kind = jelly
//	youngs = 1000
//	[body "left"]
//	shape = cube
//	min = 0.3 0.05 0.3
//
// Bodies are ordered by their section name.
type gcfgFile struct {
	Scene struct {
		Name           string
		Quality        int
		Grid           int
		Dt             float64
		FrameDt        float64 `gcfg:"frame-dt"`
		Frames         int
		Gravity        Vec3
		Boundary       int
		Density        float64
		ParticleVolume float64 `gcfg:"particle-volume"`
		Seed           int64
	}
	Output   OutputConfig
	Material map[string]*MaterialConfig
	Body     map[string]*BodyConfig
}

func decodeGcfg(data []byte, cfg *Config) error {
	var f gcfgFile
	f.Output = cfg.Output
	f.Scene.Quality = cfg.Quality
	f.Scene.FrameDt = cfg.FrameDt
	f.Scene.Frames = cfg.Frames
	f.Scene.Boundary = cfg.Boundary
	f.Scene.Density = cfg.Density
	f.Scene.Gravity = cfg.Gravity

	if err := gcfg.FatalOnly(gcfg.ReadStringInto(&f, string(data))); err != nil {
		return err
	}

	s := f.Scene
	cfg.Name = s.Name
	cfg.Quality = s.Quality
	cfg.Grid = s.Grid
	cfg.Dt = s.Dt
	cfg.FrameDt = s.FrameDt
	cfg.Frames = s.Frames
	cfg.Gravity = s.Gravity
	cfg.Boundary = s.Boundary
	cfg.Density = s.Density
	cfg.ParticleVolume = s.ParticleVolume
	cfg.Seed = s.Seed
	cfg.Output = f.Output

	if len(f.Material) > 0 {
		cfg.Materials = make(map[string]MaterialConfig, len(f.Material))
		for name, m := range f.Material {
			cfg.Materials[name] = *m
		}
	}

	names := make([]string, 0, len(f.Body))
	for name := range f.Body {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := *f.Body[name]
		if b.Name == "" {
			b.Name = name
		}
		cfg.Bodies = append(cfg.Bodies, b)
	}
	return nil
}
