package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mpmsim/internal/compute"
	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/metrics"
	"github.com/san-kum/mpmsim/internal/objio"
	"github.com/san-kum/mpmsim/internal/scene"
	"github.com/san-kum/mpmsim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300
	gravityStrength = 9.8
	rotateStep      = 0.1
	defaultFPS      = 30
)

type TickMsg time.Time

// ReloadMsg carries a configuration re-read from disk.
type ReloadMsg struct {
	Config *config.Config
	Err    error
}

type PreviewOptions struct {
	// Substeps per tick; zero derives it from the scene's frame dt.
	Substeps int
	FPS      int
	// OutDir receives OBJ snapshots and GIF recordings.
	OutDir  string
	Backend compute.Backend
	Theme   string
}

// Preview is the interactive terminal view of a running scene.
type Preview struct {
	scene    *scene.Scene
	opts     PreviewOptions
	substeps int

	canvas *Canvas
	camera *Camera
	box    *Wireframe
	theme  Theme
	styles Styles
	tags   []int

	energy        *metrics.KineticEnergy
	comHeight     *metrics.CenterOfMassHeight
	energyHistory []float64
	heightHistory []float64

	frame     int
	running   bool
	gravity   r3.Vec
	status    string
	err       error
	showHelp  bool
	recording bool
	frames    []*image.Paletted
}

func NewPreview(sc *scene.Scene, opts PreviewOptions) *Preview {
	if opts.FPS <= 0 {
		opts.FPS = defaultFPS
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	theme := CurrentTheme
	if opts.Theme != "" {
		theme = GetTheme(opts.Theme)
	}
	p := &Preview{
		opts:    opts,
		canvas:  NewCanvas(width, height),
		camera:  NewCamera(),
		box:     DomainWireframe(),
		theme:   theme,
		styles:  NewStyles(theme),
		running: true,
	}
	p.load(sc)
	return p
}

func (p *Preview) load(sc *scene.Scene) {
	p.scene = sc
	p.substeps = p.opts.Substeps
	if p.substeps <= 0 {
		p.substeps = sim.SubstepsFor(sc.Config.FrameDt, sc.Config.Dt)
	}
	p.gravity = sc.Solver.Params().Gravity
	p.energy = metrics.NewKineticEnergy(sc.Solver.ParticleMass())
	p.comHeight = metrics.NewCenterOfMassHeight()
	p.rewind()
}

func (p *Preview) rewind() {
	p.frame = 0
	p.err = nil
	p.energy.Reset()
	p.comHeight.Reset()
	p.energyHistory = make([]float64, 0, historyCapacity)
	p.heightHistory = make([]float64, 0, historyCapacity)
	p.observe()
}

func (p *Preview) Scene() *scene.Scene { return p.scene }
func (p *Preview) Frame() int          { return p.frame }
func (p *Preview) Running() bool       { return p.running }
func (p *Preview) Gravity() r3.Vec     { return p.gravity }
func (p *Preview) Camera() *Camera     { return p.camera }
func (p *Preview) Theme() Theme        { return p.theme }
func (p *Preview) Status() string      { return p.status }
func (p *Preview) Err() error          { return p.err }

func (p *Preview) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(p.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (p *Preview) Init() tea.Cmd {
	return p.tick()
}

// Update handles input events and steps the simulation.
func (p *Preview) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return p, tea.Quit
		case " ":
			p.running = !p.running
		case "r":
			p.reset()
		case "w", "up":
			p.setGravity(r3.Vec{Y: gravityStrength})
		case "s", "down":
			p.setGravity(r3.Vec{Y: -gravityStrength})
		case "a", "left":
			p.setGravity(r3.Vec{X: -gravityStrength})
		case "d", "right":
			p.setGravity(r3.Vec{X: gravityStrength})
		case "0":
			p.setGravity(r3.Vec{})
		case "x":
			p.camera.RotateX(rotateStep)
		case "X":
			p.camera.RotateX(-rotateStep)
		case "y":
			p.camera.RotateY(rotateStep)
		case "Y":
			p.camera.RotateY(-rotateStep)
		case "z":
			p.camera.RotateZ(rotateStep)
		case "Z":
			p.camera.RotateZ(-rotateStep)
		case "+", "=":
			p.camera.ZoomIn()
		case "-", "_":
			p.camera.ZoomOut()
		case "o":
			p.snapshot()
		case "t":
			p.theme = NextTheme(p.theme.Name)
			p.styles = NewStyles(p.theme)
		case "g":
			p.toggleRecording()
		case "?":
			p.showHelp = !p.showHelp
		}
	case ReloadMsg:
		p.reload(msg)
	case TickMsg:
		if p.running && p.err == nil {
			p.step()
		}
		if p.recording {
			p.draw()
			p.captureFrame()
		}
		return p, p.tick()
	}
	return p, nil
}

// step advances the scene by one frame of substeps.
func (p *Preview) step() {
	solver := p.scene.Solver
	solver.Step(p.substeps)
	p.frame++
	if !solver.Particles().IsValid() {
		p.err = &sim.SimulationError{Frame: p.frame, Time: solver.Time(), Wrapped: sim.ErrInvalidState}
		p.running = false
		slog.Error("preview stopped", "err", p.err)
		return
	}
	p.observe()
}

func (p *Preview) observe() {
	parts := p.scene.Solver.Particles()
	t := p.scene.Solver.Time()
	p.energy.Observe(p.frame, t, parts)
	p.comHeight.Observe(p.frame, t, parts)
	p.energyHistory = appendCapped(p.energyHistory, p.energy.Value())
	p.heightHistory = appendCapped(p.heightHistory, p.comHeight.Value())
}

func appendCapped(xs []float64, v float64) []float64 {
	if len(xs) == historyCapacity {
		copy(xs, xs[1:])
		xs = xs[:len(xs)-1]
	}
	return append(xs, v)
}

func (p *Preview) reset() {
	if err := p.scene.Reset(); err != nil {
		p.err = err
		return
	}
	p.scene.Solver.SetGravity(p.gravity)
	p.rewind()
	p.status = "reset"
}

func (p *Preview) setGravity(g r3.Vec) {
	p.gravity = g
	p.scene.Solver.SetGravity(g)
}

func (p *Preview) reload(msg ReloadMsg) {
	if msg.Err != nil {
		p.status = "reload failed: " + msg.Err.Error()
		slog.Warn("config reload failed", "err", msg.Err)
		return
	}
	sc, err := scene.New(msg.Config, p.opts.Backend)
	if err != nil {
		p.status = "reload failed: " + err.Error()
		slog.Warn("config reload failed", "err", err)
		return
	}
	p.load(sc)
	p.status = "reloaded " + sc.Config.Name
	slog.Info("config reloaded", "scene", sc.Config.Name, "particles", sc.Solver.Particles().Len())
}

// snapshot writes the current particle positions as an OBJ point cloud.
func (p *Preview) snapshot() {
	name := objio.FrameName(p.scene.Config.Name+"_%06d.obj", p.frame)
	path := filepath.Join(p.opts.OutDir, name)
	header := []string{
		fmt.Sprintf("scene %s", p.scene.Config.Name),
		fmt.Sprintf("frame %d t=%.6f", p.frame, p.scene.Solver.Time()),
	}
	if err := objio.WriteFile(path, header, p.scene.Solver.Particles().X); err != nil {
		p.status = "save failed: " + err.Error()
		return
	}
	p.status = "saved " + path
}

func (p *Preview) draw() {
	p.canvas.Clear()
	RenderWireframe(p.canvas, p.box, p.camera)

	parts := p.scene.Solver.Particles()
	mats := p.scene.Solver.Materials()
	if cap(p.tags) < parts.Len() {
		p.tags = make([]int, parts.Len())
	}
	p.tags = p.tags[:parts.Len()]
	for i, m := range parts.Material {
		p.tags[i] = int(mats[m].Kind)
	}
	PointCloud(p.canvas, parts.X, p.tags, p.camera)
}

// View renders the canvas and the side panel.
func (p *Preview) View() string {
	p.draw()
	st := p.styles
	canvasView := st.Canvas.Render(p.canvas.Render(p.theme.Primary, p.theme.Particles[:]))

	var s strings.Builder
	s.WriteString(st.Header.Render(GradientText(strings.ToUpper(p.scene.Config.Name), p.theme.Secondary, p.theme.Accent)) + "\n")
	switch {
	case p.err != nil:
		s.WriteString(st.Error.Render("ERROR") + "\n")
	case p.running:
		s.WriteString(st.Running.Render(AnimatedSpinner(p.frame)+" RUNNING") + "\n")
	default:
		s.WriteString(st.Paused.Render("PAUSED") + "\n")
	}
	if p.recording {
		s.WriteString(st.Error.Render(fmt.Sprintf("● REC %d", len(p.frames))) + "\n")
	}
	if len(p.energyHistory) > 1 {
		chart := asciigraph.Plot(p.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.Graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.Label.Render(label) + st.Value.Render(value) + "\n")
	}
	parts := p.scene.Solver.Particles()
	row("Frame", fmt.Sprintf("%d", p.frame))
	row("Time", fmt.Sprintf("%.4fs", p.scene.Solver.Time()))
	row("Particles", fmt.Sprintf("%d", parts.Len()))
	row("Substeps", fmt.Sprintf("%d/frame", p.substeps))
	row("Gravity", fmt.Sprintf("(%.1f, %.1f, %.1f)", p.gravity.X, p.gravity.Y, p.gravity.Z))
	row("Energy", fmt.Sprintf("%.4g (peak %.4g)", p.energy.Value(), p.energy.Peak()))
	row("Height", SparklineChart(p.heightHistory, 24, p.theme))
	row("Workers", fmt.Sprintf("%d", p.scene.Solver.Backend().Workers()))
	row("Theme", p.theme.Name)
	if p.err != nil {
		s.WriteString(st.Error.Render(p.err.Error()) + "\n")
	} else if p.status != "" {
		s.WriteString(st.Subtle.Render(p.status) + "\n")
	}
	s.WriteString(st.Help.Render(Separator(36, p.theme) + "\nSP:Pause R:Reset Q:Quit ?:Help\nWASD:Gravity O:Save T:Theme"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.Panel.Render(s.String()))
	if p.showHelp {
		return BoxWithTitle("KEYS", helpText, 40, p.theme) + "\n" + mainView
	}
	return mainView
}

const helpText = `Space     pause / resume
R         reset to the initial state
W/A/S/D   gravity up/left/down/right
Arrows    same as W/A/S/D
0         zero gravity
X/Y/Z     rotate (shift reverses)
+/-       zoom
O         write current frame as OBJ
G         toggle GIF recording
T         cycle themes
Q         quit`

func (p *Preview) toggleRecording() {
	if !p.recording {
		p.recording = true
		p.frames = make([]*image.Paletted, 0)
		return
	}
	path := filepath.Join(p.opts.OutDir, p.scene.Config.Name+".gif")
	if err := p.saveGIF(path); err != nil {
		p.status = "gif failed: " + err.Error()
	} else if len(p.frames) > 0 {
		p.status = "saved " + path
	}
	p.recording = false
	p.frames = nil
}

func (p *Preview) palette() color.Palette {
	rgb := func(c lipgloss.Color) color.Color {
		r, g, b := parseHex(string(c))
		return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}
	}
	pal := color.Palette{rgb(p.theme.Background), rgb(p.theme.Primary)}
	for _, c := range p.theme.Particles {
		pal = append(pal, rgb(c))
	}
	return pal
}

// captureFrame rasterises the braille canvas into a paletted image.
func (p *Preview) captureFrame() {
	const charW, charH = 8, 16
	const dotW, dotH = charW / 2, charH / 4
	img := image.NewPaletted(image.Rect(0, 0, p.canvas.Width*charW, p.canvas.Height*charH), p.palette())
	for row := range p.canvas.Grid {
		for col, r := range p.canvas.Grid[row] {
			pattern := int(r - blank)
			if pattern <= 0 {
				continue
			}
			idx := uint8(1)
			if tag := p.canvas.Tags[row][col]; tag >= 0 && tag < len(p.theme.Particles) {
				idx = uint8(2 + tag)
			}
			for dy := range 4 {
				for dx := range 2 {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					x0, y0 := col*charW+dx*dotW, row*charH+dy*dotH
					for py := range dotH {
						for px := range dotW {
							img.SetColorIndex(x0+px, y0+py, idx)
						}
					}
				}
			}
		}
	}
	p.frames = append(p.frames, img)
}

func (p *Preview) saveGIF(path string) error {
	if len(p.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	delay := max(1, 100/p.opts.FPS)
	for _, frame := range p.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}
