package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run    RunMetadata          `json:"run"`
	Times  []float64            `json:"times"`
	Series map[string][]float64 `json:"series"`
	Frames []string             `json:"frames"`
}

// ExportJSON writes the metadata, per-frame stats and frame file list of a
// run as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	data := ExportData{Run: *meta, Times: []float64{}, Series: map[string][]float64{}}

	if stats, err := s.LoadStats(runID); err == nil {
		data.Times = stats.Times
		data.Series = stats.Series
	}
	frames, err := s.FramePaths(runID)
	if err != nil {
		return err
	}
	data.Frames = frames

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
