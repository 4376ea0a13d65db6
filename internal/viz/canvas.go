package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a character grid of braille cells, each 2x4 sub-pixels. Every
// cell also remembers the tag (material id) of the last pixel set in it.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Tags          [][]int
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Tags:   make([][]int, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Tags[i] = make([]int, w)
	}
	c.Clear()
	return c
}

// PixelSize is the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (int, int) { return c.Width * 2, c.Height * 4 }

// Set lights the sub-pixel (x, y); out-of-range pixels are ignored.
func (c *Canvas) Set(x, y int) { c.SetTagged(x, y, -1) }

func (c *Canvas) SetTagged(x, y, tag int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if tag >= 0 {
		c.Tags[row][col] = tag
	}
}

// Pixel reports whether sub-pixel (x, y) is lit and the tag of its cell.
func (c *Canvas) Pixel(x, y int) (bool, int) {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false, -1
	}
	row, col := y/4, x/2
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0, c.Tags[row][col]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Tags[i][j] = -1
		}
	}
}

// Lit counts the cells with at least one pixel set.
func (c *Canvas) Lit() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			if r != blank {
				n++
			}
		}
	}
	return n
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Render colours each cell by its tag; untagged cells use base.
func (c *Canvas) Render(base lipgloss.Color, palette []lipgloss.Color) string {
	styles := make([]lipgloss.Style, len(palette))
	for i, col := range palette {
		styles[i] = lipgloss.NewStyle().Foreground(col)
	}
	baseStyle := lipgloss.NewStyle().Foreground(base)

	var b strings.Builder
	for i, row := range c.Grid {
		for j, r := range row {
			if r == blank {
				b.WriteRune(r)
				continue
			}
			style := baseStyle
			if tag := c.Tags[i][j]; tag >= 0 && tag < len(styles) {
				style = styles[tag]
			}
			b.WriteString(style.Render(string(r)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
