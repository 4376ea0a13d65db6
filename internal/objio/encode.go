package objio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

const DefaultFramePattern = "frame_%06d.obj"

// FrameName formats the file name of a frame. A pattern without a verb is
// used as a prefix.
func FrameName(pattern string, frame int) string {
	if pattern == "" {
		pattern = DefaultFramePattern
	}
	if !strings.Contains(pattern, "%") {
		return fmt.Sprintf("%s%06d.obj", pattern, frame)
	}
	return fmt.Sprintf(pattern, frame)
}

// WritePoints writes a point cloud as `v x y z` lines after a block of
// `#` header comments.
func WritePoints(w io.Writer, header []string, points []r3.Vec) error {
	bw := bufio.NewWriter(w)
	for _, h := range header {
		if _, err := fmt.Fprintf(bw, "# %s\n", h); err != nil {
			return err
		}
	}

	buf := make([]byte, 0, 64)
	for _, p := range points {
		buf = append(buf[:0], 'v')
		for _, c := range [3]float64{p.X, p.Y, p.Z} {
			buf = append(buf, ' ')
			buf = strconv.AppendFloat(buf, c, 'f', 6, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes points to path through a temporary file in the same
// directory, so readers never see a partial frame.
func WriteFile(path string, header []string, points []r3.Vec) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".frame-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WritePoints(tmp, header, points); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
