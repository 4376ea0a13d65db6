package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/objio"
	"github.com/san-kum/mpmsim/internal/sim"
)

const (
	DefaultDataDir = ".mpmsim"

	metadataFile = "metadata.json"
	statsFile    = "stats.csv"

	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	if baseDir == "" {
		baseDir = DefaultDataDir
	}
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID            string             `json:"id"`
	Scene         string             `json:"scene"`
	Timestamp     time.Time          `json:"timestamp"`
	Status        string             `json:"status"`
	Error         string             `json:"error,omitempty"`
	Seed          int64              `json:"seed"`
	Grid          int                `json:"grid"`
	Dt            float64            `json:"dt"`
	FrameDt       float64            `json:"frame_dt"`
	Frames        int                `json:"frames"`
	FramesWritten int                `json:"frames_written"`
	Particles     int                `json:"particles"`
	Backend       string             `json:"backend,omitempty"`
	Elapsed       float64            `json:"elapsed_seconds"`
	FrameDir      string             `json:"frame_dir"`
	Metrics       map[string]float64 `json:"metrics"`
	Config        *config.Config     `json:"config,omitempty"`
}

// Run is an open run directory.
type Run struct {
	Meta    RunMetadata
	dir     string
	pattern string
}

// Create allocates a run directory `<scene>_<unix nanos>` and writes its
// initial metadata. Frames go to cfg.Output.Dir, relative to the run
// directory unless absolute.
func (s *Store) Create(meta RunMetadata) (*Run, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Scene, now.UnixNano())
	meta.Timestamp = now
	meta.Status = StatusRunning

	dir := filepath.Join(s.baseDir, meta.ID)
	pattern := ""
	frameDir := config.DefaultOutDir
	if meta.Config != nil {
		pattern = meta.Config.Output.Pattern
		if meta.Config.Output.Dir != "" {
			frameDir = meta.Config.Output.Dir
		}
	}
	if !filepath.IsAbs(frameDir) {
		frameDir = filepath.Join(dir, frameDir)
	}
	meta.FrameDir = frameDir

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(frameDir, 0755); err != nil {
		return nil, err
	}

	run := &Run{Meta: meta, dir: dir, pattern: pattern}
	if err := run.writeMetadata(); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *Run) Dir() string { return r.dir }

func (r *Run) FramePath(frame int) string {
	return filepath.Join(r.Meta.FrameDir, objio.FrameName(r.pattern, frame))
}

// FrameWriter returns an observer that writes every n-th frame of this run.
func (r *Run) FrameWriter(every int) *FrameWriter {
	return NewFrameWriter(r.Meta.FrameDir, r.pattern, every, r.Meta.Scene)
}

// Finish records the outcome of the run: final metadata and stats.csv.
func (r *Run) Finish(result *sim.Result, runErr error) error {
	r.Meta.Status = StatusDone
	if runErr != nil {
		r.Meta.Status = StatusFailed
		r.Meta.Error = runErr.Error()
	}
	if result != nil {
		r.Meta.FramesWritten = result.FramesWritten
		r.Meta.Metrics = result.Metrics
		r.Meta.Elapsed = result.Elapsed.Seconds()
		if err := r.writeStats(result); err != nil {
			return err
		}
	}
	return r.writeMetadata()
}

func (r *Run) writeMetadata() error {
	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Meta)
}

func (r *Run) writeStats(result *sim.Result) error {
	f, err := os.Create(filepath.Join(r.dir, statsFile))
	if err != nil {
		return err
	}
	defer f.Close()

	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"frame", "time"}, names...)); err != nil {
		return err
	}
	for i, t := range result.Times {
		row := []string{strconv.Itoa(i), strconv.FormatFloat(t, 'f', 6, 64)}
		for _, name := range names {
			val := 0.0
			if s := result.Series[name]; i < len(s) {
				val = s[i]
			}
			row = append(row, strconv.FormatFloat(val, 'g', 10, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

// Stats is the per-frame table of a run.
type Stats struct {
	Times   []float64
	Columns []string
	Series  map[string][]float64
}

func (s *Store) LoadStats(runID string) (*Stats, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no stats for %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	stats := &Stats{Times: []float64{}, Columns: []string{}, Series: make(map[string][]float64)}
	if len(records) == 0 {
		return stats, nil
	}
	if header := records[0]; len(header) > 2 {
		stats.Columns = header[2:]
	}

	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		stats.Times = append(stats.Times, t)
		for j, name := range stats.Columns {
			val := 0.0
			if j+2 < len(record) {
				val, _ = strconv.ParseFloat(record[j+2], 64)
			}
			stats.Series[name] = append(stats.Series[name], val)
		}
	}
	return stats, nil
}

// FramePaths lists the OBJ frames of a run in frame order.
func (s *Store) FramePaths(runID string) ([]string, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(meta.FrameDir, "*.obj"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
