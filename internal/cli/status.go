package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxstudio/gridparity/internal/catalog"
	"github.com/voxstudio/gridparity/internal/config"
	"github.com/voxstudio/gridparity/internal/ledger"
)

const bannerWidth = 60

// StatusSummary is the aggregate verification state over the catalog.
//
// Buckets are disjoint, with priority verified > failed > skipped >
// pending, so the four counts always sum to Total. A model with a
// standing verified entry and a later failed re-check counts as
// verified and appears in Stale.
type StatusSummary struct {
	Total    int      `json:"total"`
	Verified int      `json:"verified"`
	Failed   int      `json:"failed"`
	Skipped  int      `json:"skipped"`
	Pending  int      `json:"pending"`
	Stale    []string `json:"stale,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show verification status across the catalog",
		Long: `Show how many catalog models are verified, failed, skipped, or still
pending, with per-model detail in verbose mode.

Test-only models are left out of the totals. A model whose standing
verified entry predates a failed re-check stays verified in the counts
and is flagged as stale.

Examples:
  gridparity status
  gridparity status --verbose
  gridparity status --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}

	return cmd
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
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

	summary := buildStatusSummary(models, led, cfg.Skip)

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
		return formatter.Success(summary)
	}

	writeStatusText(cmd.OutOrStdout(), summary, led, opts.Verbose)
	return nil
}

// buildStatusSummary classifies every catalog model except the
// test-only ones into exactly one bucket.
func buildStatusSummary(models []catalog.Model, led *ledger.Ledger, skip config.Skip) StatusSummary {
	failed := led.Failed()

	var s StatusSummary
	for _, m := range models {
		if skip.IsTestOnly(m.Name) {
			continue
		}
		s.Total++

		_, hasFailed := failed[m.Name]
		switch {
		case led.IsVerified(m.Name):
			s.Verified++
		case hasFailed:
			s.Failed++
		case led.IsSkipped(m.Name) || skip.IsUnsupported(m.Name):
			s.Skipped++
		default:
			s.Pending++
		}
	}
	s.Stale = led.Stale()
	return s
}

func writeStatusText(w io.Writer, s StatusSummary, led *ledger.Ledger, verbose bool) {
	line := strings.Repeat("=", bannerWidth)

	percent := 0.0
	if s.Total > 0 {
		percent = 100 * float64(s.Verified) / float64(s.Total)
	}

	fmt.Fprintf(w, "\n%s\n", line)
	fmt.Fprintln(w, "Model Verification Status")
	fmt.Fprintf(w, "%s\n", line)
	fmt.Fprintf(w, "Total models:    %d\n", s.Total)
	if len(s.Stale) > 0 {
		fmt.Fprintf(w, "  Verified:      %d (%.1f%%, %d stale)\n", s.Verified, percent, len(s.Stale))
	} else {
		fmt.Fprintf(w, "  Verified:      %d (%.1f%%)\n", s.Verified, percent)
	}
	fmt.Fprintf(w, "  Failed:        %d\n", s.Failed)
	fmt.Fprintf(w, "  Skipped:       %d\n", s.Skipped)
	fmt.Fprintf(w, "  Pending:       %d\n", s.Pending)
	fmt.Fprintf(w, "%s\n\n", line)

	if !verbose {
		return
	}

	verified := led.Verified()
	failed := led.Failed()
	stale := make(map[string]bool, len(s.Stale))
	for _, name := range s.Stale {
		stale[name] = true
	}

	// The verbose listing walks the raw ledger maps, so a stale model
	// shows up under both headings: its standing verified entry and the
	// failure that made it stale.
	fmt.Fprintln(w, "Verified models:")
	verifiedNames := make([]string, 0, len(verified))
	for name := range verified {
		verifiedNames = append(verifiedNames, name)
	}
	slices.Sort(verifiedNames)
	for _, name := range verifiedNames {
		entry := verified[name]
		marker := ""
		if stale[name] {
			marker = " (stale: last re-check failed)"
		}
		fmt.Fprintf(w, "  %s: %.1f%% (seed %d)%s\n", name, entry.Accuracy, entry.Seed, marker)
	}

	if len(failed) > 0 {
		fmt.Fprintln(w, "\nFailed models:")
		failedNames := make([]string, 0, len(failed))
		for name := range failed {
			failedNames = append(failedNames, name)
		}
		slices.Sort(failedNames)
		for _, name := range failedNames {
			entry := failed[name]
			fmt.Fprintf(w, "  %s: %.2f%% - %s\n", name, entry.Accuracy, entry.Reason)
		}
	}
}
