package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/san-kum/mpmsim/internal/mpm"
	"github.com/san-kum/mpmsim/internal/objio"
)

// FrameWriter is a sim.Observer that writes the particle positions of every
// n-th frame as an OBJ point cloud.
type FrameWriter struct {
	dir     string
	pattern string
	every   int
	scene   string
	written int
	last    string
}

func NewFrameWriter(dir, pattern string, every int, scene string) *FrameWriter {
	if every < 1 {
		every = 1
	}
	return &FrameWriter{dir: dir, pattern: pattern, every: every, scene: scene}
}

func (w *FrameWriter) OnFrame(frame int, t float64, p *mpm.Particles) error {
	if frame%w.every != 0 {
		return nil
	}
	path := filepath.Join(w.dir, objio.FrameName(w.pattern, frame))
	header := []string{
		fmt.Sprintf("mpmsim %s frame %d", w.scene, frame),
		fmt.Sprintf("time %.6f", t),
		fmt.Sprintf("particles %d", p.Len()),
	}
	if err := objio.WriteFile(path, header, p.X); err != nil {
		return fmt.Errorf("write frame %d: %w", frame, err)
	}
	w.written++
	w.last = path
	slog.Debug("frame written", "frame", frame, "path", path)
	return nil
}

func (w *FrameWriter) Written() int { return w.written }
func (w *FrameWriter) Last() string { return w.last }
