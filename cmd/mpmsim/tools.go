package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/mpmsim/internal/config"
	"github.com/san-kum/mpmsim/internal/objio"
	"github.com/san-kum/mpmsim/internal/optim"
	"github.com/san-kum/mpmsim/internal/scene"
)

func sampleMesh(cmd *cobra.Command, args []string) error {
	mesh, err := objio.ReadFile(args[0])
	if err != nil {
		return err
	}
	for _, w := range mesh.Warnings {
		slog.Warn(w, "file", args[0])
	}
	if len(mesh.Faces) == 0 {
		return fmt.Errorf("%s: mesh has no faces", args[0])
	}

	pts := objio.SampleInterior(mesh, spacing, jitter, rand.New(rand.NewSource(seed)))
	if len(pts) == 0 {
		return fmt.Errorf("%s: no interior samples at spacing %g", args[0], spacing)
	}
	if extent > 0 {
		b := mesh.Bounds()
		pts = scene.Fit(pts, r3.Scale(0.5, r3.Add(b.Min, b.Max)), extent)
	}
	slog.Info("mesh sampled", "file", args[0], "faces", len(mesh.Faces), "points", len(pts))

	header := []string{fmt.Sprintf("sampled from %s spacing %g", args[0], spacing)}
	if outputFile == "" {
		return objio.WritePoints(os.Stdout, header, pts)
	}
	if err := objio.WriteFile(outputFile, header, pts); err != nil {
		return err
	}
	fmt.Printf("wrote %d points to %s\n", len(pts), outputFile)
	return nil
}

func listScenes(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tBODIES\tMATERIALS\tPARTICLES")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name).Resolved()
		bodies := make([]string, len(cfg.Bodies))
		count := 0
		fromFile := false
		for i, b := range cfg.Bodies {
			bodies[i] = fmt.Sprintf("%s(%s)", b.Name, b.Shape)
			if b.Shape == "cube" {
				count += b.Count
			} else {
				fromFile = true
			}
		}
		particles := fmt.Sprintf("%d", count)
		if fromFile {
			particles = "from file"
			if count > 0 {
				particles = fmt.Sprintf("%d + file", count)
			}
		}
		mats := make([]string, 0, len(cfg.Materials))
		for _, m := range sortedKeys(cfg.Materials) {
			mats = append(mats, fmt.Sprintf("%s:%s", m, cfg.Materials[m].Kind))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, strings.Join(bodies, " "), strings.Join(mats, " "), particles)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	name := "two_cubes"
	if len(args) > 0 {
		name = args[0]
	}
	cfg, err := scene.Lookup(name)
	if err != nil {
		return err
	}

	if outputFile == "" {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}
	if err := config.Save(outputFile, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outputFile)
	return nil
}

func sweepScene(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("no --param given (available: %s)", strings.Join(optim.Params(), ", "))
	}
	cfg, err := sceneConfig(cmd, args)
	if err != nil {
		return err
	}

	names := make([]string, len(sweepParams))
	ranges := make([][]float64, len(sweepParams))
	for i, p := range sweepParams {
		names[i], ranges[i], err = optim.ParseRange(p)
		if err != nil {
			return err
		}
	}

	objective := optim.SceneObjective(cfg, cfg.Frames, metricName, maximize, backend(cmd))
	best, val, trials, err := optim.NewGridSearch(names, ranges).Search(context.Background(), objective)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metricName))
	for _, tr := range trials {
		row := make([]string, len(names))
		for i, n := range names {
			row[i] = fmt.Sprintf("%g", tr.Params[n])
		}
		score := fmt.Sprintf("%.6g", metricValue(tr.Value))
		if tr.Err != nil {
			score = "error: " + tr.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(row, "\t"), score)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best == nil {
		return errors.New("every trial failed")
	}
	fmt.Printf("\nbest %s = %.6g at", metricName, metricValue(val))
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best[n])
	}
	fmt.Println()
	return nil
}

func metricValue(v float64) float64 {
	if maximize {
		return -v
	}
	return v
}
