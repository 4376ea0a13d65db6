package viz

import (
	"fmt"
	"io"
	"time"

	"github.com/san-kum/mpmsim/internal/mpm"
)

// Progress is a frame observer that redraws a progress bar on w.
type Progress struct {
	w      io.Writer
	total  int
	width  int
	theme  Theme
	start  time.Time
	frames int
}

// NewProgress reports progress towards total frames (frame 0 included).
func NewProgress(w io.Writer, total int) *Progress {
	return &Progress{w: w, total: max(total, 1), width: 30, theme: CurrentTheme, start: time.Now()}
}

func (p *Progress) OnFrame(frame int, t float64, parts *mpm.Particles) error {
	p.frames++
	done := float64(frame) / float64(p.total)
	elapsed := time.Since(p.start)
	fps := 0.0
	if s := elapsed.Seconds(); s > 0 {
		fps = float64(p.frames) / s
	}
	_, err := fmt.Fprintf(p.w, "\r%s %3.0f%% frame %d/%d t=%.4fs %.1f fps",
		ProgressBar(done, p.width, p.theme), 100*done, frame, p.total, t, fps)
	if err == nil && frame >= p.total {
		_, err = fmt.Fprintln(p.w)
	}
	return err
}
