package viz

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/objio"
	"github.com/san-kum/mpmsim/internal/scene"
)

func smallScene(t *testing.T) *scene.Scene {
	t.Helper()
	cfg := config.GetPreset("two_cubes")
	cfg.Grid = 32
	for i := range cfg.Bodies {
		cfg.Bodies[i].Count = 100
	}
	sc, err := scene.New(cfg, nil)
	require.NoError(t, err)
	return sc
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func send(p *Preview, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = p.Update(msg)
	}
	return cmd
}

func TestPreviewTickAndPause(t *testing.T) {
	p := NewPreview(smallScene(t), PreviewOptions{OutDir: t.TempDir()})
	assert.Equal(t, 0, p.Frame())
	assert.True(t, p.Running())
	assert.Equal(t, r3.Vec{Y: -9.8}, p.Gravity())

	cmd := send(p, TickMsg(time.Now()), TickMsg(time.Now()))
	assert.NotNil(t, cmd, "tick reschedules itself")
	assert.Equal(t, 2, p.Frame())
	assert.InDelta(t, 2*2e-3, p.Scene().Solver.Time(), 1e-9)

	send(p, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.False(t, p.Running())
	send(p, TickMsg(time.Now()))
	assert.Equal(t, 2, p.Frame())
}

func TestPreviewGravityKeys(t *testing.T) {
	p := NewPreview(smallScene(t), PreviewOptions{})
	cases := []struct {
		msg  tea.Msg
		want r3.Vec
	}{
		{runes("w"), r3.Vec{Y: 9.8}},
		{runes("a"), r3.Vec{X: -9.8}},
		{tea.KeyMsg{Type: tea.KeyRight}, r3.Vec{X: 9.8}},
		{tea.KeyMsg{Type: tea.KeyDown}, r3.Vec{Y: -9.8}},
		{runes("0"), r3.Vec{}},
	}
	for _, c := range cases {
		send(p, c.msg)
		assert.Equal(t, c.want, p.Gravity())
		assert.Equal(t, c.want, p.Scene().Solver.Params().Gravity)
	}
}

func TestPreviewReset(t *testing.T) {
	p := NewPreview(smallScene(t), PreviewOptions{})
	start := p.Scene().Solver.Particles().Clone()

	send(p, TickMsg(time.Now()), TickMsg(time.Now()), runes("r"))
	assert.Equal(t, 0, p.Frame())
	assert.Zero(t, p.Scene().Solver.Time())
	assert.Equal(t, start.X, p.Scene().Solver.Particles().X)
	assert.Equal(t, "reset", p.Status())
}

func TestPreviewCameraAndTheme(t *testing.T) {
	p := NewPreview(smallScene(t), PreviewOptions{Theme: "retro"})
	assert.Equal(t, "retro", p.Theme().Name)

	rx, zoom := p.Camera().RotX, p.Camera().Zoom
	send(p, runes("x"), runes("x"), runes("X"), runes("+"))
	assert.InDelta(t, rx+0.1, p.Camera().RotX, 1e-12)
	assert.Greater(t, p.Camera().Zoom, zoom)

	send(p, runes("t"))
	assert.Equal(t, NextTheme("retro").Name, p.Theme().Name)
	assert.Contains(t, p.View(), "Particles")
}

func TestPreviewSnapshot(t *testing.T) {
	dir := t.TempDir()
	p := NewPreview(smallScene(t), PreviewOptions{OutDir: dir})
	send(p, TickMsg(time.Now()), runes("o"))

	path := filepath.Join(dir, "two_cubes_000001.obj")
	assert.Equal(t, "saved "+path, p.Status())
	mesh, err := objio.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, mesh.Vertices, 200)
}

func TestPreviewRecordGIF(t *testing.T) {
	dir := t.TempDir()
	p := NewPreview(smallScene(t), PreviewOptions{OutDir: dir})
	send(p, runes("g"), TickMsg(time.Now()), TickMsg(time.Now()), runes("g"))

	info, err := os.Stat(filepath.Join(dir, "two_cubes.gif"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPreviewQuit(t *testing.T) {
	p := NewPreview(smallScene(t), PreviewOptions{})
	cmd := send(p, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestPreviewReload(t *testing.T) {
	p := NewPreview(smallScene(t), PreviewOptions{})
	send(p, TickMsg(time.Now()))

	cfg := config.GetPreset("two_cubes")
	cfg.Name = "reloaded"
	cfg.Grid = 32
	for i := range cfg.Bodies {
		cfg.Bodies[i].Count = 50
	}
	send(p, ReloadMsg{Config: cfg})
	assert.Equal(t, 0, p.Frame())
	assert.Equal(t, "reloaded reloaded", p.Status())
	assert.Equal(t, 100, p.Scene().Solver.Particles().Len())

	send(p, ReloadMsg{Err: os.ErrNotExist})
	assert.Contains(t, p.Status(), "reload failed")
	assert.Equal(t, "reloaded", p.Scene().Config.Name)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, config.Save(path, config.GetPreset("jelly_drop")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs := make(chan tea.Msg, 16)
	done := make(chan error, 1)
	forward := func(m tea.Msg) {
		select {
		case msgs <- m:
		default:
		}
	}
	go func() { done <- Watch(ctx, path, forward) }()

	// rewrite until the watcher is registered and reports the change
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case m := <-msgs:
			reload, ok := m.(ReloadMsg)
			require.True(t, ok)
			// a write can be observed while the file is still truncated
			if reload.Err != nil || reload.Config.Name != "jelly_drop" {
				continue
			}
			assert.Len(t, reload.Config.Bodies, 1)
			cancel()
			assert.NoError(t, <-done)
			return
		case <-ticker.C:
			require.NoError(t, config.Save(path, config.GetPreset("jelly_drop")))
		case <-timeout:
			t.Fatal("no reload message")
		}
	}
}
