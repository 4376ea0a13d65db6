package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/mpm"
	"github.com/san-kum/mpmsim/internal/sim"
)

func testParticles() *mpm.Particles {
	p := mpm.NewParticles(2)
	p.Append(r3.Vec{X: 0.1, Y: 0.2, Z: 0.3}, r3.Vec{}, 0)
	p.Append(r3.Vec{X: 0.4, Y: 0.5, Z: 0.6}, r3.Vec{}, 0)
	return p
}

func TestStoreCreateFinishLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig().Resolved()
	run, err := st.Create(RunMetadata{Scene: "two_cubes", Seed: 42, Grid: cfg.Grid, Config: cfg})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.HasPrefix(run.Meta.ID, "two_cubes_") {
		t.Errorf("unexpected run id %q", run.Meta.ID)
	}

	meta, err := st.Load(run.Meta.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Status != StatusRunning {
		t.Errorf("expected status running, got %s", meta.Status)
	}

	result := &sim.Result{
		FramesWritten: 3,
		Times:         []float64{0, 0.002, 0.004},
		Series: map[string][]float64{
			"kinetic_energy": {0, 1.5, 3},
			"com_height":     {0.3, 0.29, 0.28},
		},
		Metrics: map[string]float64{"kinetic_energy": 3},
		Elapsed: 2 * time.Second,
	}
	if err := run.Finish(result, nil); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	meta, err = st.Load(run.Meta.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Status != StatusDone || meta.FramesWritten != 3 || meta.Seed != 42 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["kinetic_energy"] != 3 {
		t.Errorf("expected energy 3, got %f", meta.Metrics["kinetic_energy"])
	}
	if meta.Elapsed != 2 {
		t.Errorf("expected 2s elapsed, got %v", meta.Elapsed)
	}
	if meta.Config == nil || meta.Config.Grid != cfg.Grid || meta.Config.Gravity != cfg.Gravity {
		t.Error("config not persisted")
	}

	stats, err := st.LoadStats(run.Meta.ID)
	if err != nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if len(stats.Times) != 3 || stats.Times[2] != 0.004 {
		t.Errorf("unexpected times %v", stats.Times)
	}
	if len(stats.Columns) != 2 || stats.Columns[0] != "com_height" {
		t.Errorf("unexpected columns %v", stats.Columns)
	}
	if got := stats.Series["kinetic_energy"]; len(got) != 3 || got[1] != 1.5 {
		t.Errorf("unexpected energy series %v", got)
	}
}

func TestFinishWithError(t *testing.T) {
	st := New(t.TempDir())
	run, err := st.Create(RunMetadata{Scene: "bunny"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := run.Finish(&sim.Result{}, errors.New("exploded")); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	meta, _ := st.Load(run.Meta.ID)
	if meta.Status != StatusFailed || meta.Error != "exploded" {
		t.Errorf("unexpected status %s / %q", meta.Status, meta.Error)
	}
}

func TestFrameWriter(t *testing.T) {
	st := New(t.TempDir())
	run, err := st.Create(RunMetadata{Scene: "two_cubes"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	fw := run.FrameWriter(2)
	parts := testParticles()
	for frame := 0; frame < 5; frame++ {
		if err := fw.OnFrame(frame, float64(frame)*0.002, parts); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
	}
	if fw.Written() != 3 {
		t.Errorf("expected 3 frames written, got %d", fw.Written())
	}
	if fw.Last() != run.FramePath(4) {
		t.Errorf("last frame %s, want %s", fw.Last(), run.FramePath(4))
	}

	paths, err := st.FramePaths(run.Meta.ID)
	if err != nil {
		t.Fatalf("frame paths failed: %v", err)
	}
	want := []string{"frame_000000.obj", "frame_000002.obj", "frame_000004.obj"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %v", len(want), paths)
	}
	for i, p := range paths {
		if filepath.Base(p) != want[i] {
			t.Errorf("path %d = %s, want %s", i, filepath.Base(p), want[i])
		}
	}

	data, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "v 0.400000 0.500000 0.600000") {
		t.Errorf("frame content missing vertex:\n%s", data)
	}
}

func TestAbsoluteFrameDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "houdini")
	cfg := config.DefaultConfig()
	cfg.Output.Dir = out
	cfg.Output.Pattern = "cubes_%04d.obj"

	run, err := New(t.TempDir()).Create(RunMetadata{Scene: "two_cubes", Config: cfg})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if got := run.FramePath(7); got != filepath.Join(out, "cubes_0007.obj") {
		t.Errorf("FramePath = %s", got)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("frame dir not created: %v", err)
	}
}

func TestListSortedAndMissing(t *testing.T) {
	st := New(t.TempDir())
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v, %v", runs, err)
	}

	first, _ := st.Create(RunMetadata{Scene: "a"})
	second, _ := st.Create(RunMetadata{Scene: "b"})
	if err := os.MkdirAll(filepath.Join(st.Dir(), "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != first.Meta.ID || runs[1].ID != second.Meta.ID {
		t.Errorf("unexpected order %v", runs)
	}

	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	run, _ := st.Create(RunMetadata{Scene: "two_cubes"})
	if err := run.FrameWriter(1).OnFrame(0, 0, testParticles()); err != nil {
		t.Fatal(err)
	}
	result := &sim.Result{FramesWritten: 1, Times: []float64{0}, Series: map[string][]float64{"max_speed": {0}}}
	if err := run.Finish(result, nil); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, run.Meta.ID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Run.ID != run.Meta.ID || len(data.Frames) != 1 || len(data.Series["max_speed"]) != 1 {
		t.Errorf("unexpected export %+v", data)
	}
}
