package batch

import (
	"context"
	"fmt"
	"io"

	"github.com/voxstudio/gridparity/internal/history"
	"github.com/voxstudio/gridparity/internal/ledger"
)

// WriteReport prints one line per result plus the summary tally, in
// submission order. Pending results (models a cancelled run never
// reached) get no line but still count toward the total, so a shortfall
// is visible in the tally. Returns the verified and failed counts.
func WriteReport(w io.Writer, results []TaskResult) (verified, failed int) {
	for _, res := range results {
		switch res.Status {
		case ledger.StatusVerified:
			verified++
			fmt.Fprintf(w, "  [OK] %s\n", res.Model)
		case ledger.StatusFailed:
			failed++
			fmt.Fprintf(w, "  [FAIL] %s: %s\n", res.Model, res.Reason)
		}
	}
	fmt.Fprintf(w, "\nResults: %d verified, %d failed out of %d\n", verified, failed, len(results))
	return verified, failed
}

// Tally counts verified and failed results without printing anything.
// Pending results count toward neither.
func Tally(results []TaskResult) (verified, failed int) {
	for _, res := range results {
		switch res.Status {
		case ledger.StatusVerified:
			verified++
		case ledger.StatusFailed:
			failed++
		}
	}
	return verified, failed
}

// Commit merges results into the ledger, saves it, then appends one
// history row per result. Pending results are not recorded.
//
// The ledger is saved before history is written: status is the output
// operators depend on, history is the audit trail. A nil history store
// skips the audit trail entirely.
func Commit(ctx context.Context, results []TaskResult, led *ledger.Ledger, hist *history.Store, batchID string) error {
	for _, res := range results {
		if res.Status == ledger.StatusPending {
			continue
		}
		led.Record(res.Model, ledger.Record{
			Status:   res.Status,
			Seed:     res.Seed,
			Accuracy: res.Accuracy,
			Reason:   res.Reason,
		})
	}
	if err := led.Save(); err != nil {
		return err
	}

	if hist == nil {
		return nil
	}
	for _, res := range results {
		if res.Status == ledger.StatusPending {
			continue
		}
		if _, err := hist.Append(ctx, history.RunRecord{
			BatchID:    batchID,
			Model:      res.Model,
			Seed:       res.Seed,
			Status:     string(res.Status),
			Accuracy:   res.Accuracy,
			Reason:     res.Reason,
			DurationMS: res.Duration.Milliseconds(),
		}); err != nil {
			return fmt.Errorf("recording run history for %s: %w", res.Model, err)
		}
	}
	return nil
}
