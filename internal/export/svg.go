package export

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mpmsim/internal/viz"
)

func header(sb *strings.Builder, width, height float64, background string) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

func particleColor(theme viz.Theme, tag int) string {
	if tag >= 0 && tag < len(theme.Particles) {
		return string(theme.Particles[tag])
	}
	return string(theme.Primary)
}

// FrameToSVG projects particles with cam onto a w x h image and draws them
// back to front as circles coloured by tag (material kind).
func FrameToSVG(points []r3.Vec, tags []int, cam *viz.Camera, w, h int, theme viz.Theme) string {
	type dot struct {
		x, y  int
		depth float64
		tag   int
	}
	dots := make([]dot, 0, len(points))
	for i, p := range points {
		x, y, d, ok := cam.Project(p, w, h)
		if !ok {
			continue
		}
		tag := -1
		if i < len(tags) {
			tag = tags[i]
		}
		dots = append(dots, dot{x, y, d, tag})
	}
	sort.SliceStable(dots, func(i, j int) bool { return dots[i].depth < dots[j].depth })

	radius := max(0.6, float64(min(w, h))/400)
	var sb strings.Builder
	header(&sb, float64(w), float64(h), string(theme.Background))
	sb.WriteString("<g>\n")
	for _, d := range dots {
		fmt.Fprintf(&sb, `<circle cx="%d" cy="%d" r="%.1f" fill="%s"/>
`, d.x, d.y, radius, particleColor(theme, d.tag))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// CanvasToSVG converts a braille canvas to SVG, one dot per lit sub-pixel.
func CanvasToSVG(canvas *viz.Canvas, scale float64, theme viz.Theme) string {
	if canvas == nil {
		return ""
	}
	pw, ph := canvas.PixelSize()
	width, height := float64(pw)*scale, float64(ph)*scale

	var sb strings.Builder
	header(&sb, width, height, string(theme.Background))
	sb.WriteString("<g>\n")
	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			lit, tag := canvas.Pixel(x, y)
			if !lit {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx, cy, dotRadius, particleColor(theme, tag))
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG plots ys against xs as a polyline.
func SeriesToSVG(xs, ys []float64, width, height int, strokeColor string) string {
	n := min(len(xs), len(ys))
	if n < 2 {
		return ""
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 0; i < n; i++ {
		minX, maxX = min(minX, xs[i]), max(maxX, xs[i])
		minY, maxY = min(minY, ys[i]), max(maxY, ys[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height), "#0a0a0a")
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)
	for i := 0; i < n; i++ {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
