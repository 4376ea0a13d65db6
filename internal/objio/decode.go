package objio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrNoVertices = errors.New("objio: no vertices")
	ErrBadIndex   = errors.New("objio: face index out of range")
)

// ParseError reports the line a decode failure happened on.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("obj line %d: %v", e.Line, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Mesh is the geometry of an OBJ file: positions and triangles. Polygon faces
// are fan-triangulated on load.
type Mesh struct {
	Vertices []r3.Vec
	Faces    [][3]int
	Warnings []string
}

type decoder struct {
	mesh *Mesh
	line int
	// unsupported statement types already warned about
	seen map[string]bool
}

// Decode reads an OBJ stream. Only vertex positions and faces are kept;
// other statements are skipped with one warning per statement type.
func Decode(r io.Reader) (*Mesh, error) {
	dec := &decoder{
		mesh: &Mesh{
			Vertices: make([]r3.Vec, 0),
			Faces:    make([][3]int, 0),
			Warnings: make([]string, 0),
		},
		seen: make(map[string]bool),
	}

	bufin := bufio.NewReader(r)
	dec.line = 1
	for {
		line, err := bufin.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if perr := dec.parseLine(strings.TrimSpace(line)); perr != nil {
			return nil, &ParseError{Line: dec.line, Err: perr}
		}
		if err == io.EOF {
			break
		}
		dec.line++
	}
	return dec.mesh, nil
}

// ReadFile decodes the OBJ file at path.
func ReadFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (dec *decoder) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	switch fields[0] {
	case "v":
		return dec.parseVertex(fields[1:])
	case "f":
		return dec.parseFace(fields[1:])
	default:
		if !dec.seen[fields[0]] {
			dec.seen[fields[0]] = true
			dec.warn("statement not supported: " + fields[0])
		}
	}
	return nil
}

// v <x> <y> <z> [w | r g b]
func (dec *decoder) parseVertex(fields []string) error {
	if len(fields) < 3 {
		return errors.New("vertex with less than 3 coordinates")
	}
	var c [3]float64
	for i := range c {
		val, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return err
		}
		c[i] = val
	}
	dec.mesh.Vertices = append(dec.mesh.Vertices, r3.Vec{X: c[0], Y: c[1], Z: c[2]})
	return nil
}

// f <v>[/<vt>][/<vn>] ...
func (dec *decoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return errors.New("face with less than 3 vertices")
	}
	idx := make([]int, len(fields))
	for pos, f := range fields {
		vfield, _, _ := strings.Cut(f, "/")
		val, err := strconv.Atoi(vfield)
		if err != nil {
			return err
		}
		switch {
		case val > 0:
			idx[pos] = val - 1
		case val < 0:
			// relative to the last vertex read so far
			idx[pos] = len(dec.mesh.Vertices) + val
		default:
			return errors.New("face vertex index 0")
		}
		if idx[pos] < 0 || idx[pos] >= len(dec.mesh.Vertices) {
			return fmt.Errorf("%w: %s with %d vertices", ErrBadIndex, f, len(dec.mesh.Vertices))
		}
	}
	for i := 1; i+1 < len(idx); i++ {
		dec.mesh.Faces = append(dec.mesh.Faces, [3]int{idx[0], idx[i], idx[i+1]})
	}
	return nil
}

func (dec *decoder) warn(msg string) {
	dec.mesh.Warnings = append(dec.mesh.Warnings, fmt.Sprintf("obj(%d): %s", dec.line, msg))
}
