package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxstudio/gridparity/internal/artifact"
	"github.com/voxstudio/gridparity/internal/batch"
	"github.com/voxstudio/gridparity/internal/compare"
	"github.com/voxstudio/gridparity/internal/ledger"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Seed int
}

// VerifyResult is the outcome of a single-model verification.
type VerifyResult struct {
	Model    string  `json:"model"`
	Seed     int     `json:"seed"`
	Status   string  `json:"status"`
	Accuracy float64 `json:"accuracy"`
	Details  string  `json:"details"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <model>",
		Short: "Verify one model against the reference engine",
		Long: `Compare one model's candidate artifact against the reference engine's
output for the same seed, and record the outcome in the status ledger.

The reference artifact is generated if missing. The candidate artifact
must already exist: this path never invokes the candidate engine, so a
missing candidate output is a hard stop. Use the batch command to
generate both sides.

Exit codes:
  0 - Comparison completed (pass and fail both exit 0)
  1 - Candidate artifact missing
  2 - Command error (config, ledger, etc.)

Examples:
  gridparity verify Basic
  gridparity verify River --seed 7`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Seed, "seed", 0, "generation seed (defaults to the configured seed)")

	return cmd
}

func runVerify(opts *VerifyOptions, model string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	led, err := loadLedger(cfg)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.Seed
	}

	store := newStore(cfg)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	if text {
		fmt.Fprintf(w, "Verifying %s (seed %d)...\n", model, seed)
	}

	start := time.Now()
	ctx := cmd.Context()

	if !store.Has(artifact.RoleReference, model, seed) {
		reference, err := newEngine(artifact.RoleReference, store, cfg.Reference, cfg.Timeout)
		if err != nil {
			return err
		}
		if text {
			fmt.Fprintln(w, "  Generating reference artifact...")
		}
		if genErr := reference.Generate(ctx, model, seed); genErr != nil {
			slog.Error("reference generation failed", "model", model, "seed", seed, "error", genErr)
			// No ledger update here: without a reference artifact there
			// was no comparison to record.
			if text {
				fmt.Fprintln(w, "  FAILED: Could not generate reference artifact")
				return nil
			}
			return formatter.Error("reference_generation_failed", "could not generate reference artifact", genErr.Error())
		}
	}

	if !store.Has(artifact.RoleCandidate, model, seed) {
		expected := store.Path(artifact.RoleCandidate, model, seed)
		if text {
			fmt.Fprintln(w, "  Candidate output not found. Run the candidate engine first.")
			fmt.Fprintf(w, "  Expected: %s\n", expected)
		} else if err := formatter.Error("candidate_missing", "candidate artifact not found", expected); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("candidate artifact not found: %s", expected))
	}

	ref, err := store.Get(artifact.RoleReference, model, seed)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read reference artifact", err)
	}
	cand, err := store.Get(artifact.RoleCandidate, model, seed)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read candidate artifact", err)
	}

	res := compare.Grids(ref, cand)

	result := VerifyResult{Model: model, Seed: seed, Accuracy: res.Accuracy()}
	task := batch.TaskResult{Model: model, Seed: seed, Accuracy: res.Accuracy(), Duration: time.Since(start)}
	if res.Perfect() {
		result.Status = string(ledger.StatusVerified)
		result.Details = "PERFECT MATCH"
		task.Status = ledger.StatusVerified
	} else {
		result.Status = string(ledger.StatusFailed)
		result.Details = res.Summary()
		task.Status = ledger.StatusFailed
		task.Reason = res.Summary()
	}

	hist, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory(hist)

	if err := batch.Commit(ctx, []batch.TaskResult{task}, led, hist, ""); err != nil {
		return WrapExitError(ExitCommandError, "failed to record verification outcome", err)
	}

	if text {
		if res.Perfect() {
			fmt.Fprintf(w, "  PASSED: %s\n", result.Details)
		} else {
			fmt.Fprintf(w, "  FAILED: %s\n", result.Details)
		}
		return nil
	}
	return formatter.Success(result)
}
