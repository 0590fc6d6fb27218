// Package compare performs cell-by-cell comparison of two grid artifacts
// and summarizes where they diverge.
//
// Comparison is pure and never fails: structural mismatches (differing
// declared dimensions, or differing state lengths despite matching
// dimensions) are encoded in the result rather than returned as errors,
// because they are expected outcomes when engines diverge, not programming
// errors. Only palette indices are compared; display labels may differ
// between engines as long as indices denote the same semantic state.
package compare

import (
	"fmt"

	"github.com/voxstudio/gridparity/internal/artifact"
)

// CellDiff is one differing cell with its decoded coordinate.
//
// The flat index decomposes with x fastest:
// x = index % MX, y = (index / MX) % MY, z = index / (MX*MY).
type CellDiff struct {
	Index     int
	X, Y, Z   int
	Reference int
	Candidate int
}

// Result captures one comparison of a reference artifact against a
// candidate artifact. Ephemeral: computed on demand, never persisted.
type Result struct {
	Model string
	Seed  int

	DimensionsReference [3]int
	DimensionsCandidate [3]int
	DimensionsMatch     bool

	// LengthsMatch is false when declared dimensions agree but the state
	// sequences have different lengths. That is a contract violation by
	// one of the engines.
	LengthsMatch bool

	// TotalCells is the reference state length; CandidateCells the
	// candidate's. They agree unless LengthsMatch is false.
	TotalCells     int
	CandidateCells int

	MatchingCells int
	Differences   []CellDiff
}

// Grids compares two artifacts cell-by-cell.
//
// On dimension or length mismatch the scan is skipped entirely:
// Differences stays empty and Accuracy reports 0.
func Grids(ref, cand *artifact.Grid) Result {
	r := Result{
		Model:               ref.Model,
		Seed:                ref.Seed,
		DimensionsReference: ref.Dimensions,
		DimensionsCandidate: cand.Dimensions,
		DimensionsMatch:     ref.Dimensions == cand.Dimensions,
		TotalCells:          len(ref.State),
		CandidateCells:      len(cand.State),
	}
	r.LengthsMatch = r.TotalCells == r.CandidateCells

	if !r.DimensionsMatch || !r.LengthsMatch {
		return r
	}

	mx, my := ref.Dimensions[0], ref.Dimensions[1]
	for i, v := range ref.State {
		if v == cand.State[i] {
			r.MatchingCells++
			continue
		}
		r.Differences = append(r.Differences, CellDiff{
			Index:     i,
			X:         i % mx,
			Y:         (i / mx) % my,
			Z:         i / (mx * my),
			Reference: v,
			Candidate: cand.State[i],
		})
	}

	return r
}

// Accuracy returns the percentage of matching cells, 0.0 on structural
// mismatch, and 100.0 for the vacuous zero-cell comparison.
func (r Result) Accuracy() float64 {
	if !r.DimensionsMatch || !r.LengthsMatch {
		return 0.0
	}
	if r.TotalCells == 0 {
		return 100.0
	}
	return 100.0 * float64(r.MatchingCells) / float64(r.TotalCells)
}

// Perfect reports a structurally sound comparison with no differing cells.
func (r Result) Perfect() bool {
	return r.DimensionsMatch && r.LengthsMatch && len(r.Differences) == 0
}

// Summary returns the canonical one-line classification used by both the
// single-model verify path and the batch path.
func (r Result) Summary() string {
	switch {
	case !r.DimensionsMatch:
		return fmt.Sprintf("dimension mismatch: %s vs %s",
			dimString(r.DimensionsReference), dimString(r.DimensionsCandidate))
	case !r.LengthsMatch:
		return fmt.Sprintf("state length mismatch: %d vs %d", r.TotalCells, r.CandidateCells)
	case r.Perfect():
		return "MATCH"
	default:
		return fmt.Sprintf("%.2f%% (%d cells differ)", r.Accuracy(), len(r.Differences))
	}
}

func dimString(d [3]int) string {
	return fmt.Sprintf("%dx%dx%d", d[0], d[1], d[2])
}
