package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job is one independent scene run inside an Ensemble.
type Job struct {
	Name   string
	Sim    *Simulator
	Config Config
}

type Ensemble struct {
	limit int
}

// NewEnsemble runs at most limit jobs at once; limit <= 0 means no limit.
func NewEnsemble(limit int) *Ensemble {
	return &Ensemble{limit: limit}
}

// Run executes every job concurrently. The first failing job cancels the
// others and its error is returned; results keep the order of jobs.
func (e *Ensemble) Run(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			res, err := job.Sim.Run(gctx, job.Config)
			results[i] = res
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
