// Package batch schedules verification tasks across many models.
//
// A batch run resolves a target (explicit names, a suite, or the whole
// catalog), verifies each model on a bounded worker pool, and reports
// results in submission order. Workers share nothing but the artifact
// store; ledger and history writes happen in a single sequential pass
// after the pool drains, so concurrent tasks never interleave writes to
// the status file.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxstudio/gridparity/internal/artifact"
	"github.com/voxstudio/gridparity/internal/compare"
	"github.com/voxstudio/gridparity/internal/engine"
	"github.com/voxstudio/gridparity/internal/ledger"
)

// TaskResult is one model's outcome within a batch run.
type TaskResult struct {
	Model    string
	Seed     int
	Status   ledger.Status
	Accuracy float64
	Reason   string
	Duration time.Duration
}

// Options configure one batch run.
type Options struct {
	// Seed drives both engines for every model in the run.
	Seed int

	// Jobs is the worker count. Values below 1 mean strictly sequential.
	Jobs int

	// Regenerate invalidates both artifacts before each task, forcing
	// fresh generation instead of reusing cached outputs.
	Regenerate bool
}

// Runner verifies models by driving both engines and comparing their
// artifacts.
type Runner struct {
	reference engine.Engine
	candidate engine.Engine
	store     *artifact.Store
}

// NewRunner creates a runner over the two engines and their shared
// artifact store.
func NewRunner(reference, candidate engine.Engine, store *artifact.Store) *Runner {
	return &Runner{reference: reference, candidate: candidate, store: store}
}

// Run verifies every model and returns one result per model, in input
// order. Per-model failures are isolated: they produce a Failed result
// and never stop the remaining models.
//
// When ctx is cancelled mid-run, models not yet attempted come back with
// StatusPending and the context error is returned alongside the results.
func (r *Runner) Run(ctx context.Context, models []string, opts Options) ([]TaskResult, error) {
	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}
	if jobs > len(models) {
		jobs = len(models)
	}

	slog.Info("batch starting", "models", len(models), "jobs", jobs, "seed", opts.Seed)

	results := make([]TaskResult, len(models))

	type task struct {
		idx   int
		model string
	}
	tasks := make(chan task)

	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tk := range tasks {
				if ctx.Err() != nil {
					results[tk.idx] = TaskResult{
						Model:  tk.model,
						Seed:   opts.Seed,
						Status: ledger.StatusPending,
						Reason: "cancelled",
					}
					continue
				}
				results[tk.idx] = r.verifyOne(ctx, tk.model, opts)
			}
		}()
	}

	for i, m := range models {
		tasks <- task{idx: i, model: m}
	}
	close(tasks)
	wg.Wait()

	slog.Info("batch finished", "models", len(models))
	return results, ctx.Err()
}

// verifyOne runs the full pipeline for a single model: regenerate if
// asked, reference generation, candidate generation, then comparison.
func (r *Runner) verifyOne(ctx context.Context, model string, opts Options) TaskResult {
	start := time.Now()
	res := TaskResult{Model: model, Seed: opts.Seed}

	finish := func() TaskResult {
		res.Duration = time.Since(start)
		slog.Debug("task complete", "model", model, "status", res.Status, "elapsed", res.Duration)
		return res
	}

	if opts.Regenerate {
		if err := r.invalidateBoth(model, opts.Seed); err != nil {
			res.Status = ledger.StatusFailed
			res.Reason = fmt.Sprintf("invalidating artifacts: %v", err)
			return finish()
		}
	}

	// A reference failure short-circuits: without the trusted output
	// there is nothing to compare the candidate against.
	if err := r.reference.Generate(ctx, model, opts.Seed); err != nil {
		slog.Error("reference generation failed", "model", model, "seed", opts.Seed, "error", err)
		res.Status = ledger.StatusFailed
		res.Reason = "reference generation failed"
		return finish()
	}

	if err := r.candidate.Generate(ctx, model, opts.Seed); err != nil {
		slog.Error("candidate generation failed", "model", model, "seed", opts.Seed, "error", err)
		res.Status = ledger.StatusFailed
		res.Reason = "candidate generation failed"
		return finish()
	}

	ref, err := r.store.Get(artifact.RoleReference, model, opts.Seed)
	if err != nil {
		res.Status = ledger.StatusFailed
		res.Reason = fmt.Sprintf("reference artifact unreadable: %v", err)
		return finish()
	}
	cand, err := r.store.Get(artifact.RoleCandidate, model, opts.Seed)
	if err != nil {
		res.Status = ledger.StatusFailed
		res.Reason = fmt.Sprintf("candidate artifact unreadable: %v", err)
		return finish()
	}

	result := compare.Grids(ref, cand)
	res.Accuracy = result.Accuracy()
	if result.Perfect() {
		res.Status = ledger.StatusVerified
	} else {
		res.Status = ledger.StatusFailed
		res.Reason = result.Summary()
	}
	return finish()
}

func (r *Runner) invalidateBoth(model string, seed int) error {
	if err := r.store.Invalidate(artifact.RoleReference, model, seed); err != nil {
		return err
	}
	return r.store.Invalidate(artifact.RoleCandidate, model, seed)
}
