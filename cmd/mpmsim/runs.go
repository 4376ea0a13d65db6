package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mpmsim/internal/analysis"
	"github.com/san-kum/mpmsim/internal/export"
	"github.com/san-kum/mpmsim/internal/objio"
	"github.com/san-kum/mpmsim/internal/scene"
	"github.com/san-kum/mpmsim/internal/storage"
	"github.com/san-kum/mpmsim/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tSTATUS\tFRAMES\tPARTICLES\tGRID\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%d\t%d\t%.1fs\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Status,
			run.FramesWritten,
			run.Frames+1,
			run.Particles,
			run.Grid,
			run.Elapsed,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if showFull {
		return st.ExportJSON(os.Stdout, args[0])
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func loadSeries(st *storage.Store, runID, metric string) ([]float64, []float64, error) {
	stats, err := st.LoadStats(runID)
	if err != nil {
		return nil, nil, err
	}
	series, ok := stats.Series[metric]
	if !ok {
		return nil, nil, fmt.Errorf("run %s has no metric %q (available: %s)", runID, metric, strings.Join(stats.Columns, ", "))
	}
	if len(series) < 2 {
		return nil, nil, errors.New("no data to plot")
	}
	return stats.Times, series, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	metric := "kinetic_energy"
	if len(args) > 1 {
		metric = args[1]
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, series, err := loadSeries(st, runID, metric)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("frames: %d\n\n", len(series))

	graph := asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s vs frame", metric)),
	)
	fmt.Println(graph)

	if svgFile != "" {
		svg := export.SeriesToSVG(times, series, 800, 400, string(viz.ThemeTaichi.Accent))
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgFile)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, height, err := loadSeries(st, runID, "com_height")
	if err != nil {
		return err
	}
	sampleDt := sampleInterval(times)
	if sampleDt <= 0 {
		return fmt.Errorf("run %s has no frame interval", runID)
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s\n\n", meta.Scene)

	mean, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
	for _, h := range height {
		mean += h
		lo, hi = math.Min(lo, h), math.Max(hi, h)
	}
	mean /= float64(len(height))

	freq := analysis.DominantFrequency(height, sampleDt)
	fmt.Printf("centre of mass height: %.4f .. %.4f (mean %.4f)\n", lo, hi, mean)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.4f s\n", 1.0/freq)
	}
	fmt.Printf("upward mean crossings: %d\n", len(analysis.Crossings(height, mean)))

	if _, energy, err := loadSeries(st, runID, "kinetic_energy"); err == nil {
		if f := analysis.DominantFrequency(energy, sampleDt); f > 0 {
			fmt.Printf("kinetic energy frequency: %.3f hz\n", f)
		}
	}

	rate := analysis.Rate(height, sampleDt)
	fmt.Println("\nphase portrait (height vs vertical rate):")
	fmt.Println(analysis.PhasePortraitToASCII(analysis.PhasePortrait(height, rate), 60, 18))
	return nil
}

// sampleInterval is the mean simulated time between recorded frames. A frame
// covers whole substeps, so it can fall short of the configured frame_dt.
func sampleInterval(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}
	return (times[len(times)-1] - times[0]) / float64(len(times)-1)
}

// frameTags recovers per-particle material kinds by rebuilding the run's
// scene from its stored configuration and seed.
func frameTags(meta *storage.RunMetadata, n int) []int {
	if meta.Config == nil {
		return nil
	}
	parts, mats, err := scene.Build(meta.Config, rand.New(rand.NewSource(meta.Config.Seed)))
	if err != nil || parts.Len() != n {
		return nil
	}
	tags := make([]int, n)
	for i, m := range parts.Material {
		tags[i] = int(mats[m].Kind)
	}
	return tags
}

func snapshotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	paths, err := st.FramePaths(runID)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("run %s has no frames", runID)
	}
	idx := frameIndex
	if idx < 0 || idx >= len(paths) {
		idx = len(paths) - 1
	}

	mesh, err := objio.ReadFile(paths[idx])
	if err != nil {
		return err
	}
	svg := export.FrameToSVG(mesh.Vertices, frameTags(meta, len(mesh.Vertices)), viz.NewCamera(), imgWidth, imgHeight, viz.GetTheme(themeName))

	out := svgFile
	if out == "" {
		out = fmt.Sprintf("%s_%s.svg", runID, strings.TrimSuffix(filepath.Base(paths[idx]), filepath.Ext(paths[idx])))
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d particles)\n", out, len(mesh.Vertices))
	return nil
}

// sortedKeys is used for deterministic listings.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
