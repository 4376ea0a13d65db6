package scene

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/mpm"
	"github.com/san-kum/mpmsim/internal/objio"
	"github.com/san-kum/mpmsim/internal/sim"
)

const cubeMesh = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
f 2 3 7 6
f 3 4 8 7
f 4 1 5 8
`

func smallConfig() *config.Config {
	cfg := config.GetPreset("two_cubes")
	cfg.Grid = 32
	for i := range cfg.Bodies {
		cfg.Bodies[i].Count = 200
	}
	return cfg
}

func TestBuildTwoCubes(t *testing.T) {
	cfg := smallConfig().Resolved()
	parts, mats, err := Build(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, 400, parts.Len())
	require.Len(t, mats, 1)
	assert.Equal(t, mpm.Jelly, mats[0].Kind)

	lower := parts.X[:200]
	for _, x := range lower {
		assert.True(t, x.X >= 0.3 && x.X <= 0.5 && x.Y >= 0.05 && x.Y <= 0.25, "lower cube sample %v", x)
	}
	for _, x := range parts.X[200:] {
		assert.True(t, x.Y >= 0.37-1e-12 && x.Y <= 0.57+1e-12, "upper cube sample %v", x)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	cfg := smallConfig().Resolved()
	a, _, err := Build(cfg, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	b, _, err := Build(cfg, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, a.X, b.X)
}

func TestBuildMaterialsAndVelocity(t *testing.T) {
	cfg := smallConfig()
	cfg.Materials["snow"] = config.MaterialConfig{Kind: "snow", Youngs: 2e3, Poisson: 0.2}
	cfg.Bodies[1].Material = "snow"
	cfg.Bodies[1].Velocity = config.Vec3{1, 0, 0}

	parts, mats, err := Build(cfg.Resolved(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, mats, 2)

	// ordered by name: jelly, snow
	assert.Equal(t, "snow", mats[1].Name)
	assert.Equal(t, mpm.DefaultHardening, mats[1].Hardening)
	assert.Equal(t, 0, parts.Material[0])
	assert.Equal(t, 1, parts.Material[399])
	assert.Equal(t, r3.Vec{X: 1}, parts.V[399])
	assert.Equal(t, r3.Vec{}, parts.V[0])
}

func TestBuildUnknownShape(t *testing.T) {
	cfg := smallConfig().Resolved()
	cfg.Bodies[0].Shape = "torus"
	_, _, err := Build(cfg, rand.New(rand.NewSource(1)))
	assert.ErrorContains(t, err, "unknown body shape")
}

func TestFit(t *testing.T) {
	pts := []r3.Vec{{X: -1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0.5}}
	out := Fit(pts, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, 0.4)

	assert.InDelta(t, 0.3, out[0].X, 1e-12)
	assert.InDelta(t, 0.7, out[1].X, 1e-12)
	assert.InDelta(t, 0.4, out[0].Y, 1e-12)
	assert.InDelta(t, 0.6, out[1].Y, 1e-12)
	assert.InDelta(t, 0.45, out[0].Z, 1e-12)
	assert.Nil(t, Fit(nil, r3.Vec{}, 1))
}

func TestPointCloudBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloud.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 2 2 2\nv 1 1 1\n"), 0644))

	cfg := smallConfig()
	cfg.Bodies = []config.BodyConfig{{
		Name: "cloud", Shape: "points", Source: path,
		Center: config.Vec3{0.5, 0.5, 0.5}, Extent: 0.2, Material: "jelly",
	}}

	parts, _, err := Build(cfg.Resolved(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Equal(t, 3, parts.Len())
	assert.InDelta(t, 0.4, parts.X[0].X, 1e-12)
	assert.InDelta(t, 0.6, parts.X[1].Z, 1e-12)
	assert.InDelta(t, 0.5, parts.X[2].Y, 1e-12)
}

func TestMeshBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.obj")
	require.NoError(t, os.WriteFile(path, []byte(cubeMesh), 0644))

	cfg := smallConfig()
	cfg.Bodies = []config.BodyConfig{{
		Name: "box", Shape: "mesh", Source: path, Center: config.Vec3{0.5, 0.5, 0.5},
		Extent: 0.2, Spacing: 0.02, Jitter: 0.5, Material: "jelly",
	}}

	parts, _, err := Build(cfg.Resolved(), rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	assert.Equal(t, 1000, parts.Len())
	b := parts.Bounds()
	assert.True(t, b.Min.X >= 0.4 && b.Max.X <= 0.6)
}

func TestMissingPointCloud(t *testing.T) {
	cfg := config.GetPreset("bunny")
	cfg.Bodies[0].Source = filepath.Join(t.TempDir(), "missing.obj")
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewAndReset(t *testing.T) {
	s, err := New(smallConfig(), nil)
	require.NoError(t, err)

	parts := s.Solver.Particles()
	start := parts.Clone()
	s.Solver.Step(5)
	assert.NotEqual(t, start.X, s.Solver.Particles().X)
	assert.Greater(t, s.Solver.Time(), 0.0)

	require.NoError(t, s.Reset())
	assert.Equal(t, start.X, s.Solver.Particles().X)
	assert.Equal(t, 0.0, s.Solver.Time())
	assert.Equal(t, 32, s.Config.Grid)
	assert.InDelta(t, math.Pow(0.5/32, 3), s.Config.ParticleVolume, 1e-18)
}

func TestLookup(t *testing.T) {
	cfg, err := Lookup("two-cubes")
	require.NoError(t, err)
	assert.Equal(t, "two_cubes", cfg.Name)

	_, err = Lookup("teapot")
	assert.ErrorIs(t, err, config.ErrUnknownPreset)
	assert.Equal(t, "fluid_dam", Normalize("Fluid-Dam"))
}

func TestListShapes(t *testing.T) {
	assert.Equal(t, []string{"cube", "mesh", "points"}, NewRegistry().ListShapes())
}

func TestPresetsStayFinite(t *testing.T) {
	if testing.Short() {
		t.Skip("runs every preset at full resolution")
	}

	rng := rand.New(rand.NewSource(1))
	cloud := make([]r3.Vec, 2000)
	for i := range cloud {
		cloud[i] = r3.Vec{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
	}
	cloudPath := filepath.Join(t.TempDir(), "bunny_point.obj")
	require.NoError(t, objio.WriteFile(cloudPath, nil, cloud))

	const frames = 30
	for _, name := range config.ListPresets() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := config.GetPreset(name)
			for i := range cfg.Bodies {
				if cfg.Bodies[i].Shape == "points" {
					cfg.Bodies[i].Source = cloudPath
				}
			}

			sc, err := New(cfg, nil)
			require.NoError(t, err)
			result, err := sim.New(sc.Solver).Run(context.Background(), sim.Config{
				Frames:           frames,
				SubstepsPerFrame: sim.SubstepsFor(sc.Config.FrameDt, sc.Config.Dt),
				ValidateState:    true,
			})
			require.NoError(t, err)
			assert.Equal(t, frames+1, result.FramesWritten)
			assert.True(t, sc.Solver.Particles().IsValid())
		})
	}
}
