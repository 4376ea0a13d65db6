package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/storage"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func TestSceneConfigFlagsOverride(t *testing.T) {
	root := newRootCmd()
	runCmd, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, runCmd.ParseFlags([]string{"--frames", "7", "--grid", "48", "--points", "cloud.obj"}))

	cfg, err := sceneConfig(runCmd, []string{"bunny"})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Frames)
	assert.Equal(t, 48, cfg.Grid)
	assert.Equal(t, "cloud.obj", cfg.Bodies[0].Source)
	assert.Equal(t, config.DefaultQuality, cfg.Quality, "unchanged flags keep preset values")

	_, err = sceneConfig(runCmd, []string{"two-cubes"})
	assert.Error(t, err, "--points needs a point-cloud body")

	_, err = sceneConfig(runCmd, []string{"teapot"})
	assert.ErrorIs(t, err, config.ErrUnknownPreset)
}

func TestConfigFileWithFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, execute(t, "config", "jelly_drop", "-o", path))

	root := newRootCmd()
	runCmd, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, runCmd.ParseFlags([]string{"--config", path, "--seed", "9"}))

	cfg, err := sceneConfig(runCmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "jelly_drop", cfg.Name)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, 6000, cfg.Bodies[0].Count)
}

func TestRunAndInspect(t *testing.T) {
	data := t.TempDir()
	out := t.TempDir()
	require.NoError(t, execute(t, "run", "two_cubes", "--data", data, "--frames", "4", "--grid", "32", "--workers", "2", "-q"))

	st := storage.New(data)
	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, storage.StatusDone, run.Status)
	assert.Equal(t, 5, run.FramesWritten)
	assert.Equal(t, 9000, run.Particles)

	paths, err := st.FramePaths(run.ID)
	require.NoError(t, err)
	assert.Len(t, paths, 5)

	require.NoError(t, execute(t, "list", "--data", data))
	require.NoError(t, execute(t, "show", run.ID, "--data", data, "--full"))
	require.NoError(t, execute(t, "plot", run.ID, "com_height", "--data", data, "--svg", filepath.Join(out, "h.svg")))
	require.NoError(t, execute(t, "analyze", run.ID, "--data", data))

	svg := filepath.Join(out, "last.svg")
	require.NoError(t, execute(t, "snapshot", run.ID, "--data", data, "-o", svg))
	info, err := os.Stat(svg)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, execute(t, "plot", run.ID, "no_such_metric", "--data", data))
	assert.Error(t, execute(t, "show", "missing", "--data", data))
}

func TestBatch(t *testing.T) {
	data := t.TempDir()
	require.NoError(t, execute(t, "batch", "two_cubes", "jelly_drop", "--data", data, "--frames", "1", "--grid", "32", "--parallel", "0"))

	runs, err := storage.New(data).List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, storage.StatusDone, r.Status)
		assert.Equal(t, 2, r.FramesWritten)
	}
}

func TestSampleAndScenes(t *testing.T) {
	dir := t.TempDir()
	mesh := filepath.Join(dir, "cube.obj")
	require.NoError(t, os.WriteFile(mesh, []byte(`v 0 0 0
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
`), 0644))

	out := filepath.Join(dir, "points.obj")
	require.NoError(t, execute(t, "sample", mesh, "--spacing", "0.25", "--jitter", "0", "-o", out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "v ")

	require.NoError(t, execute(t, "scenes"))
	assert.Error(t, execute(t, "run", "--log-level", "loud"))
}

func TestSweep(t *testing.T) {
	require.NoError(t, execute(t, "sweep", "jelly_drop", "--frames", "1", "--grid", "32",
		"--param", "youngs=500,1000", "--metric", "com_height", "--maximize"))

	assert.Error(t, execute(t, "sweep", "jelly_drop", "--frames", "1"), "no --param")
	assert.Error(t, execute(t, "sweep", "jelly_drop", "--param", "stiffness=1,2"))
}

func TestAnalyzeSampleIntervalFollowsSubsteps(t *testing.T) {
	assert.Zero(t, sampleInterval([]float64{0.5}))
	assert.InDelta(t, 1.8e-3, sampleInterval([]float64{0, 1.8e-3, 3.6e-3}), 1e-15)

	// 3e-4 fits six whole substeps into a 2e-3 frame, so frames are 1.8e-3 apart.
	data := t.TempDir()
	require.NoError(t, execute(t, "run", "two_cubes", "--data", data, "--frames", "2", "--grid", "32", "--dt", "3e-4", "-q"))

	st := storage.New(data)
	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	stats, err := st.LoadStats(runs[0].ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.8e-3, sampleInterval(stats.Times), 1e-9)

	require.NoError(t, execute(t, "analyze", runs[0].ID, "--data", data))
}
