package dynamo

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Job is one independent run of an ensemble. Jobs must not share a Simulator:
// metrics and observers are per-run.
type Job struct {
	Name   string
	Sim    *Simulator
	X0     State
	Config Config
}

type Outcome struct {
	Name   string
	Result *Result
	Err    error
}

// RunEnsemble runs jobs concurrently with at most workers goroutines. A failing
// job does not stop the others; every outcome is returned in job order.
func RunEnsemble(ctx context.Context, jobs []Job, workers int) []Outcome {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	outcomes := make([]Outcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range jobs {
		idx := i
		g.Go(func() error {
			job := jobs[idx]
			res, err := job.Sim.Run(ctx, job.X0, job.Config)
			outcomes[idx] = Outcome{Name: job.Name, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
