package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/san-kum/mpmsim/internal/compute"
	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/scene"
	"github.com/san-kum/mpmsim/internal/storage"
)

var (
	dataDir  string
	logLevel string

	configFile string
	frames     int
	quality    int
	grid       int
	dt         float64
	seed       int64
	pointsFile string
	outDir     string
	every      int
	workers    int
	quiet      bool

	// preview
	fps       int
	substeps  int
	watch     bool
	themeName string

	// plot and snapshot
	svgFile    string
	frameIndex int
	imgWidth   int
	imgHeight  int
	showFull   bool
	outputFile string

	// sample
	spacing float64
	jitter  float64
	extent  float64

	// batch and bench
	parallel   int
	benchSteps int

	// sweep
	sweepParams []string
	metricName  string
	maximize    bool
)

// main registers the commands and flags and exits with status 1 if the
// command fails.
func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "mpmsim",
		Short:        "3D MLS-MPM elastic solid simulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", storage.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "simulate a scene and write one OBJ per frame",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().StringVar(&outDir, "out", "", "frame output directory (default <run>/frames)")
	runCmd.Flags().IntVar(&every, "every", config.DefaultEvery, "write every n-th frame")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress bar")

	previewCmd := &cobra.Command{
		Use:   "preview [scene]",
		Short: "interactive terminal preview",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPreview,
	}
	addSceneFlags(previewCmd)
	previewCmd.Flags().StringVar(&outDir, "out", ".", "directory for OBJ snapshots and GIF recordings")
	previewCmd.Flags().IntVar(&fps, "fps", 30, "frame rate")
	previewCmd.Flags().IntVar(&substeps, "substeps", 0, "substeps per frame (default frame_dt/dt)")
	previewCmd.Flags().BoolVar(&watch, "watch", false, "reload --config when it changes")
	previewCmd.Flags().StringVar(&themeName, "theme", "taichi", "color theme")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&showFull, "full", false, "include per-frame stats and frame files")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [metric]",
		Short: "plot a metric of a run",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also write the plot as SVG")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "bounce frequency and phase portrait of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "render a frame of a run to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	snapshotCmd.Flags().IntVar(&frameIndex, "frame", -1, "frame file index (default last)")
	snapshotCmd.Flags().StringVarP(&svgFile, "output", "o", "", "output file (default <run>_<frame>.svg)")
	snapshotCmd.Flags().IntVar(&imgWidth, "width", 800, "image width")
	snapshotCmd.Flags().IntVar(&imgHeight, "height", 600, "image height")
	snapshotCmd.Flags().StringVar(&themeName, "theme", "taichi", "color theme")

	sampleCmd := &cobra.Command{
		Use:   "sample [mesh.obj]",
		Short: "fill a closed mesh with points and write a point-cloud OBJ",
		Args:  cobra.ExactArgs(1),
		RunE:  sampleMesh,
	}
	sampleCmd.Flags().Float64Var(&spacing, "spacing", 0.01, "lattice spacing")
	sampleCmd.Flags().Float64Var(&jitter, "jitter", 0.3, "jitter as a fraction of spacing")
	sampleCmd.Flags().Float64Var(&extent, "extent", 0, "rescale so the largest edge is this long (0 keeps size)")
	sampleCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	sampleCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list built-in scenes",
		Args:  cobra.NoArgs,
		RunE:  listScenes,
	}

	configCmd := &cobra.Command{
		Use:   "config [scene]",
		Short: "write a scene configuration (yaml or toml)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}
	configCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout as yaml)")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark substeps per second across worker counts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	addSceneFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchSteps, "steps", 50, "substeps per measurement")

	batchCmd := &cobra.Command{
		Use:   "batch [scene...]",
		Short: "run several scenes concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}
	addSceneFlags(batchCmd)
	batchCmd.Flags().IntVar(&every, "every", config.DefaultEvery, "write every n-th frame")
	batchCmd.Flags().IntVar(&parallel, "parallel", 2, "scenes run at once (0 for all)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "grid search scene parameters against a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScene,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter range name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&metricName, "metric", "bounding_height", "metric to optimize")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize instead of minimize")

	rootCmd.AddCommand(runCmd, previewCmd, listCmd, showCmd, plotCmd, analyzeCmd, snapshotCmd,
		sampleCmd, scenesCmd, configCmd, benchCmd, batchCmd, sweepCmd)
	return rootCmd
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scene config file (yaml, toml or ini)")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	cmd.Flags().IntVar(&quality, "quality", config.DefaultQuality, "resolution multiplier (grid 128q, dt 1e-4/q)")
	cmd.Flags().IntVar(&grid, "grid", 0, "grid resolution (overrides quality)")
	cmd.Flags().Float64Var(&dt, "dt", 0, "substep size (overrides quality)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "sampling seed")
	cmd.Flags().StringVar(&pointsFile, "points", "", "point cloud OBJ for point-cloud bodies (bunny)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (default NumCPU)")
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// sceneConfig resolves the scene of a command: --config, else the named
// built-in scene (two_cubes by default), then explicitly set flags.
func sceneConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			slog.Warn("scene argument ignored with --config", "scene", args[0], "config", configFile)
		}
		cfg = loaded
	} else {
		name := "two_cubes"
		if len(args) > 0 {
			name = args[0]
		}
		preset, err := scene.Lookup(name)
		if err != nil {
			return nil, err
		}
		cfg = preset
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies the flags the user set onto cfg; file values win
// otherwise.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("quality") {
		cfg.Quality = quality
	}
	if flags.Changed("grid") {
		cfg.Grid = grid
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("every") {
		cfg.Output.Every = every
	}
	if flags.Changed("out") && cmd.Name() == "run" {
		abs, err := filepath.Abs(outDir)
		if err != nil {
			return err
		}
		cfg.Output.Dir = abs
	}
	if flags.Changed("points") {
		found := false
		for i := range cfg.Bodies {
			if cfg.Bodies[i].Shape == "points" || cfg.Bodies[i].Shape == "mesh" {
				cfg.Bodies[i].Source = pointsFile
				found = true
			}
		}
		if !found {
			return fmt.Errorf("--points: scene %s has no point-cloud body", cfg.Name)
		}
	}
	return nil
}

func backend(cmd *cobra.Command) compute.Backend {
	if cmd.Flags().Changed("workers") {
		return compute.NewCPUBackend(workers)
	}
	return compute.GetBackend()
}
