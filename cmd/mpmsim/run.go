package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/mpmsim/internal/compute"
	"github.com/san-kum/mpmsim/internal/metrics"
	"github.com/san-kum/mpmsim/internal/scene"
	"github.com/san-kum/mpmsim/internal/sim"
	"github.com/san-kum/mpmsim/internal/storage"
	"github.com/san-kum/mpmsim/internal/viz"
)

// prepared is a scene wired to a simulator and an open run directory.
type prepared struct {
	scene  *scene.Scene
	run    *storage.Run
	sim    *sim.Simulator
	config sim.Config
}

func prepare(st *storage.Store, sc *scene.Scene) (*prepared, error) {
	cfg := sc.Config
	run, err := st.Create(storage.RunMetadata{
		Scene:     cfg.Name,
		Seed:      cfg.Seed,
		Grid:      cfg.Grid,
		Dt:        cfg.Dt,
		FrameDt:   cfg.FrameDt,
		Frames:    cfg.Frames,
		Particles: sc.Solver.Particles().Len(),
		Backend:   sc.Solver.Backend().Name(),
		Config:    cfg,
	})
	if err != nil {
		return nil, err
	}

	s := sim.New(sc.Solver)
	for _, m := range metrics.Defaults(sc.Solver.Params()) {
		s.AddMetric(m)
	}
	s.AddObserver(run.FrameWriter(cfg.Output.Every))

	return &prepared{
		scene: sc,
		run:   run,
		sim:   s,
		config: sim.Config{
			Frames:           cfg.Frames,
			SubstepsPerFrame: sim.SubstepsFor(cfg.FrameDt, cfg.Dt),
			ValidateState:    true,
		},
	}, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := sceneConfig(cmd, args)
	if err != nil {
		return err
	}
	sc, err := scene.New(cfg, backend(cmd))
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	p, err := prepare(st, sc)
	if err != nil {
		return err
	}
	if !quiet {
		p.sim.AddObserver(viz.NewProgress(os.Stderr, p.config.Frames))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("run started",
		"run", p.run.Meta.ID,
		"particles", sc.Solver.Particles().Len(),
		"grid", sc.Config.Grid,
		"substeps", p.config.SubstepsPerFrame)
	fmt.Printf("running %s (%d particles, grid %d)...\n", sc.Config.Name, sc.Solver.Particles().Len(), sc.Config.Grid)

	result, runErr := p.sim.Run(ctx, p.config)
	if err := p.run.Finish(result, runErr); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("completed in %v\n", result.Elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", p.run.Meta.ID)
	fmt.Printf("frames: %d written to %s\n", result.FramesWritten, p.run.Meta.FrameDir)
	printMetrics(os.Stdout, result.Metrics)
	return nil
}

func printMetrics(w io.Writer, m map[string]float64) {
	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range sortedKeys(m) {
		fmt.Fprintf(w, "  %s: %.6g\n", name, m[name])
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := sceneConfig(cmd, args)
	if err != nil {
		return err
	}
	b := backend(cmd)
	sc, err := scene.New(cfg, b)
	if err != nil {
		return err
	}
	if watch && configFile == "" {
		return errors.New("--watch needs --config")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	// the TUI owns the terminal
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	model := viz.NewPreview(sc, viz.PreviewOptions{
		Substeps: substeps,
		FPS:      fps,
		OutDir:   outDir,
		Backend:  b,
		Theme:    themeName,
	})
	prog := tea.NewProgram(model)

	if watch {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		send := func(msg tea.Msg) {
			if r, ok := msg.(viz.ReloadMsg); ok && r.Err == nil {
				r.Err = applyFlags(cmd, r.Config)
				msg = r
			}
			prog.Send(msg)
		}
		go func() {
			if err := viz.Watch(ctx, configFile, send); err != nil {
				prog.Send(viz.ReloadMsg{Err: err})
			}
		}()
	}

	_, err = prog.Run()
	return err
}

func runBatch(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	b := backend(cmd)

	runs := make([]*prepared, 0, len(args))
	jobs := make([]sim.Job, 0, len(args))
	for _, name := range args {
		cfg, err := sceneConfig(cmd, []string{name})
		if err != nil {
			return err
		}
		sc, err := scene.New(cfg, b)
		if err != nil {
			return err
		}
		p, err := prepare(st, sc)
		if err != nil {
			return err
		}
		runs = append(runs, p)
		jobs = append(jobs, sim.Job{Name: p.run.Meta.ID, Sim: p.sim, Config: p.config})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d scenes (parallel %d)...\n", len(jobs), parallel)
	results, runErr := sim.NewEnsemble(parallel).Run(ctx, jobs)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tSTATUS\tFRAMES\tELAPSED")
	for i, p := range runs {
		res := results[i]
		var jobErr error
		if runErr != nil && (res == nil || res.FramesWritten < p.config.Frames+1) {
			jobErr = runErr
		}
		if err := p.run.Finish(res, jobErr); err != nil {
			slog.Error("finish run", "run", p.run.Meta.ID, "err", err)
		}
		written, elapsed := 0, time.Duration(0)
		if res != nil {
			written, elapsed = res.FramesWritten, res.Elapsed
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\n", p.run.Meta.ID, p.scene.Config.Name, p.run.Meta.Status, written, elapsed.Round(time.Millisecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := sceneConfig(cmd, args)
	if err != nil {
		return err
	}

	counts := []int{1, 2, 4, runtime.NumCPU()}
	if cmd.Flags().Changed("workers") {
		counts = []int{workers}
	}
	sort.Ints(counts)

	fmt.Printf("benchmarking %s\n\n", cfg.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tPARTICLES\tGRID\tSTEPS\tTIME\tSTEPS/SEC")

	last := 0
	for _, n := range counts {
		if n == last {
			continue
		}
		last = n
		sc, err := scene.New(cfg, compute.NewCPUBackend(n))
		if err != nil {
			return err
		}
		start := time.Now()
		sc.Solver.Step(benchSteps)
		elapsed := time.Since(start)
		if !sc.Solver.Particles().IsValid() {
			return &sim.SimulationError{Frame: 0, Time: sc.Solver.Time(), Wrapped: sim.ErrInvalidState}
		}

		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%v\t%.1f\n",
			n, sc.Solver.Particles().Len(), sc.Config.Grid, benchSteps,
			elapsed.Round(time.Millisecond), float64(benchSteps)/elapsed.Seconds())
	}
	return w.Flush()
}
