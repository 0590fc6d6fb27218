package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxstudio/gridparity/internal/artifact"
	"github.com/voxstudio/gridparity/internal/compare"
)

// CompareEntry is the JSON shape for one comparison outcome.
type CompareEntry struct {
	Model           string  `json:"model"`
	Seed            int     `json:"seed"`
	Accuracy        float64 `json:"accuracy"`
	Perfect         bool    `json:"perfect"`
	DimensionsMatch bool    `json:"dimensions_match"`
	Differences     int     `json:"differences"`
}

// CompareSummary is the JSON shape for a directory comparison.
type CompareSummary struct {
	Perfect int            `json:"perfect"`
	High    int            `json:"high"`
	Partial int            `json:"partial"`
	Results []CompareEntry `json:"results"`
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <reference> <candidate>",
		Short: "Compare grid artifacts cell by cell",
		Long: `Compare a reference grid artifact against a candidate artifact and
print a cell-by-cell report with diff pattern analysis.

With two directories, every reference *.json with a same-named
candidate counterpart is compared, followed by a summary that buckets
models into PERFECT (100%), HIGH (>=99%), and PARTIAL (<99%).

A comparison that finds mismatches still exits 0.

Examples:
  gridparity compare ref/Basic_seed42.json cand/Basic_seed42.json
  gridparity compare MarkovJunior/verification verification/rust`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(rootOpts, cmd, args[0], args[1])
		},
	}

	return cmd
}

func runCompare(opts *RootOptions, cmd *cobra.Command, refArg, candArg string) error {
	refInfo, err := os.Stat(refArg)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot stat %s", refArg), err)
	}
	candInfo, err := os.Stat(candArg)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot stat %s", candArg), err)
	}

	switch {
	case refInfo.IsDir() && candInfo.IsDir():
		return compareDirs(opts, cmd, refArg, candArg)
	case !refInfo.IsDir() && !candInfo.IsDir():
		return compareFiles(opts, cmd, refArg, candArg)
	default:
		return NewExitError(ExitCommandError, "arguments must be two artifact files or two directories")
	}
}

func compareFiles(opts *RootOptions, cmd *cobra.Command, refPath, candPath string) error {
	ref, err := readGrid(refPath)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", refPath), err)
	}
	cand, err := readGrid(candPath)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", candPath), err)
	}

	res := compare.Grids(ref, cand)
	if opts.Format == "json" {
		return outputJSON(cmd, compareEntry(res))
	}
	fmt.Fprint(cmd.OutOrStdout(), compare.Report(res, ref, cand))
	return nil
}

func compareDirs(opts *RootOptions, cmd *cobra.Command, refDir, candDir string) error {
	entries, err := os.ReadDir(refDir)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", refDir), err)
	}

	w := cmd.OutOrStdout()
	line := strings.Repeat("=", bannerWidth)
	text := opts.Format != "json"

	var results []compare.Result
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		candPath := filepath.Join(candDir, entry.Name())
		if _, err := os.Stat(candPath); err != nil {
			// No candidate counterpart, nothing to compare.
			continue
		}
		ref, err := readGrid(filepath.Join(refDir, entry.Name()))
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", entry.Name()), err)
		}
		cand, err := readGrid(candPath)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", candPath), err)
		}

		res := compare.Grids(ref, cand)
		results = append(results, res)
		if text {
			fmt.Fprintf(w, "\n%s\n", line)
			fmt.Fprintf(w, "Comparing: %s\n", entry.Name())
			fmt.Fprintf(w, "%s\n", line)
			fmt.Fprint(w, compare.Report(res, ref, cand))
		}
	}

	var perfect, high, partial []compare.Result
	for _, res := range results {
		switch {
		case res.Perfect():
			perfect = append(perfect, res)
		case res.Accuracy() >= 99.0:
			high = append(high, res)
		default:
			partial = append(partial, res)
		}
	}

	if !text {
		summary := CompareSummary{
			Perfect: len(perfect),
			High:    len(high),
			Partial: len(partial),
			Results: make([]CompareEntry, 0, len(results)),
		}
		for _, res := range results {
			summary.Results = append(summary.Results, compareEntry(res))
		}
		return outputJSON(cmd, summary)
	}

	fmt.Fprintf(w, "\n%s\n", line)
	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintf(w, "%s\n", line)

	fmt.Fprintf(w, "\nPERFECT (100%%): %d\n", len(perfect))
	for _, res := range perfect {
		fmt.Fprintf(w, "  %s seed=%d\n", res.Model, res.Seed)
	}
	fmt.Fprintf(w, "\nHIGH (>=99%%): %d\n", len(high))
	for _, res := range high {
		fmt.Fprintf(w, "  %s seed=%d: %.2f%%\n", res.Model, res.Seed, res.Accuracy())
	}
	fmt.Fprintf(w, "\nPARTIAL (<99%%): %d\n", len(partial))
	for _, res := range partial {
		fmt.Fprintf(w, "  %s seed=%d: %.2f%%\n", res.Model, res.Seed, res.Accuracy())
	}
	return nil
}

func readGrid(path string) (*artifact.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return artifact.Decode(data)
}

func compareEntry(res compare.Result) CompareEntry {
	return CompareEntry{
		Model:           res.Model,
		Seed:            res.Seed,
		Accuracy:        res.Accuracy(),
		Perfect:         res.Perfect(),
		DimensionsMatch: res.DimensionsMatch,
		Differences:     len(res.Differences),
	}
}
