package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// HistoryEntry is the JSON shape for one recorded run.
type HistoryEntry struct {
	ID         string  `json:"id"`
	BatchID    string  `json:"batch_id,omitempty"`
	Model      string  `json:"model"`
	Seed       int     `json:"seed"`
	Status     string  `json:"status"`
	Accuracy   float64 `json:"accuracy"`
	Reason     string  `json:"reason,omitempty"`
	DurationMS int64   `json:"duration_ms"`
	CreatedAt  string  `json:"created_at"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [model]",
		Short: "Show recent verification runs",
		Long: `Show recent verification runs from the history database, newest
first. The ledger keeps only each model's latest outcome; history keeps
every run.

Examples:
  gridparity history
  gridparity history River --limit 5`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			model := ""
			if len(args) == 1 {
				model = args[0]
			}
			return runHistory(opts, model, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list")

	return cmd
}

func runHistory(opts *HistoryOptions, model string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if cfg.History == "" {
		return NewExitError(ExitCommandError, "run history is disabled (history path is empty in config)")
	}
	hist, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory(hist)

	records, err := hist.Recent(cmd.Context(), model, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run history", err)
	}

	if opts.Format == "json" {
		entries := make([]HistoryEntry, 0, len(records))
		for _, rec := range records {
			entries = append(entries, HistoryEntry{
				ID:         rec.ID,
				BatchID:    rec.BatchID,
				Model:      rec.Model,
				Seed:       rec.Seed,
				Status:     rec.Status,
				Accuracy:   rec.Accuracy,
				Reason:     rec.Reason,
				DurationMS: rec.DurationMS,
				CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
			})
		}
		return outputJSON(cmd, entries)
	}

	w := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	if model != "" {
		fmt.Fprintf(w, "Recent runs for %s (%d):\n", model, len(records))
	} else {
		fmt.Fprintf(w, "Recent runs (%d):\n", len(records))
	}
	for _, rec := range records {
		fmt.Fprintf(w, "  %s  %-8s  %s  seed=%d",
			rec.CreatedAt.Format(time.RFC3339), rec.Status, rec.Model, rec.Seed)
		// Mismatch reasons already lead with the accuracy, so a recorded
		// reason takes the tail column instead of repeating it.
		if rec.Reason != "" {
			fmt.Fprintf(w, "  %s", rec.Reason)
		} else {
			fmt.Fprintf(w, "  %.2f%%", rec.Accuracy)
		}
		fmt.Fprintln(w)
	}
	return nil
}
