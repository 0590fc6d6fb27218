package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/voxstudio/gridparity/internal/artifact"
	"github.com/voxstudio/gridparity/internal/batch"
	"github.com/voxstudio/gridparity/internal/suite"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	All        bool
	All2D      bool
	SuitePath  string
	Seed       int
	Jobs       int
	Regenerate bool
}

// BatchReport is the JSON shape for a completed batch run.
type BatchReport struct {
	BatchID  string       `json:"batch_id"`
	Seed     int          `json:"seed"`
	Verified int          `json:"verified"`
	Failed   int          `json:"failed"`
	Total    int          `json:"total"`
	Results  []BatchEntry `json:"results"`
}

// BatchEntry is one model's outcome within a batch report.
type BatchEntry struct {
	Model      string  `json:"model"`
	Status     string  `json:"status"`
	Accuracy   float64 `json:"accuracy"`
	Reason     string  `json:"reason,omitempty"`
	DurationMS int64   `json:"duration_ms"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch [models...]",
		Short: "Verify many models in one run",
		Long: `Generate reference and candidate artifacts for a set of models, compare
them, and merge the outcomes into the status ledger in one pass after
all workers drain.

Models are selected by explicit names, a YAML suite file, or the --all
and --all-2d sweeps. The selection modes are mutually exclusive. Sweeps
exclude the unsupported and test-only skip lists; explicit names and
suites bypass them.

Examples:
  gridparity batch Basic River
  gridparity batch --all-2d
  gridparity batch --all --seed 7 -j 4
  gridparity batch --suite suites/nightly.yaml --regenerate`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "verify every model not in the skip sets")
	cmd.Flags().BoolVar(&opts.All2D, "all-2d", false, "verify every 2D model not in the skip sets")
	cmd.Flags().StringVar(&opts.SuitePath, "suite", "", "verify the models named by a YAML suite file")
	cmd.Flags().IntVar(&opts.Seed, "seed", 0, "generation seed (defaults to the suite's seed, then the configured seed)")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "parallel verification jobs (defaults to the configured count)")
	cmd.Flags().BoolVar(&opts.Regenerate, "regenerate", false, "invalidate cached artifacts before generating")

	return cmd
}

func runBatch(opts *BatchOptions, args []string, cmd *cobra.Command) error {
	modes := 0
	if len(args) > 0 {
		modes++
	}
	if opts.All {
		modes++
	}
	if opts.All2D {
		modes++
	}
	if opts.SuitePath != "" {
		modes++
	}
	if modes == 0 {
		return NewExitError(ExitCommandError, "no models selected: name models or pass one of --all, --all-2d, --suite")
	}
	if modes > 1 {
		return NewExitError(ExitCommandError, "model names, --all, --all-2d, and --suite are mutually exclusive")
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	models, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	led, err := loadLedger(cfg)
	if err != nil {
		return err
	}

	var st *suite.Suite
	if opts.SuitePath != "" {
		st, err = suite.Load(opts.SuitePath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load suite", err)
		}
	}

	selected, err := batch.Resolve(batch.Target{
		Explicit: args,
		Suite:    st,
		All2D:    opts.All2D,
		All:      opts.All,
	}, models, cfg.Skip)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve batch targets", err)
	}

	// Seed precedence: --seed flag, then the suite's seed, then config.
	seed := cfg.Seed
	if st != nil {
		seed = st.SeedOr(seed)
	}
	if cmd.Flags().Changed("seed") {
		seed = opts.Seed
	}
	jobs := cfg.Jobs
	if cmd.Flags().Changed("jobs") {
		jobs = opts.Jobs
	}
	if jobs < 1 {
		return NewExitError(ExitCommandError, "jobs must be at least 1")
	}

	store := newStore(cfg)
	reference, err := newEngine(artifact.RoleReference, store, cfg.Reference, cfg.Timeout)
	if err != nil {
		return err
	}
	candidate, err := newEngine(artifact.RoleCandidate, store, cfg.Candidate, cfg.Timeout)
	if err != nil {
		return err
	}
	hist, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory(hist)

	text := opts.Format != "json"
	w := cmd.OutOrStdout()
	if text {
		fmt.Fprintf(w, "Verifying %d models (seed=%d)...\n\n", len(selected), seed)
	}

	runner := batch.NewRunner(reference, candidate, store)
	results, runErr := runner.Run(cmd.Context(), selected, batch.Options{
		Seed:       seed,
		Jobs:       jobs,
		Regenerate: opts.Regenerate,
	})

	var verified, failed int
	if text {
		verified, failed = batch.WriteReport(w, results)
	} else {
		verified, failed = batch.Tally(results)
	}

	// Commit runs on a fresh context so an interrupted batch still
	// persists the results that did complete.
	batchID := uuid.Must(uuid.NewV7()).String()
	if err := batch.Commit(context.Background(), results, led, hist, batchID); err != nil {
		return WrapExitError(ExitCommandError, "failed to record batch results", err)
	}
	if text {
		fmt.Fprintf(w, "Status saved to: %s\n", led.Path())
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "batch interrupted", runErr)
	}

	if !text {
		report := BatchReport{
			BatchID:  batchID,
			Seed:     seed,
			Verified: verified,
			Failed:   failed,
			Total:    len(results),
			Results:  make([]BatchEntry, 0, len(results)),
		}
		for _, res := range results {
			report.Results = append(report.Results, BatchEntry{
				Model:      res.Model,
				Status:     string(res.Status),
				Accuracy:   res.Accuracy,
				Reason:     res.Reason,
				DurationMS: res.Duration.Milliseconds(),
			})
		}
		return outputJSON(cmd, report)
	}
	return nil
}
