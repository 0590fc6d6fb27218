package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/voxstudio/gridparity/internal/artifact"
)

// sampleLimit caps how many labeled differences a Diagnostic carries.
const sampleLimit = 20

// AxisStats describes the distinct coordinate values one axis contributes
// to the difference set.
type AxisStats struct {
	Distinct int
	Min      int
	Max      int
}

// SampleDiff is a difference with its palette labels resolved, for display.
type SampleDiff struct {
	CellDiff
	ReferenceLabel string
	CandidateLabel string
}

// Diagnostic summarizes where a comparison diverged. Advisory only: it
// carries no pass/fail semantics and is never persisted.
type Diagnostic struct {
	FirstIndex int

	X AxisStats
	Y AxisStats
	Z AxisStats

	// Distinct state values appearing among differences, sorted.
	ReferenceValues []int
	CandidateValues []int

	// Sample holds up to the first 20 differences with labels resolved.
	Sample []SampleDiff
}

// Summarize builds a diagnostic for a result with differences.
// Returns nil when the result has none to analyze.
func Summarize(r Result, ref, cand *artifact.Grid) *Diagnostic {
	if len(r.Differences) == 0 {
		return nil
	}

	d := &Diagnostic{FirstIndex: r.Differences[0].Index}

	xs := make(map[int]struct{})
	ys := make(map[int]struct{})
	zs := make(map[int]struct{})
	refVals := make(map[int]struct{})
	candVals := make(map[int]struct{})

	for _, diff := range r.Differences {
		xs[diff.X] = struct{}{}
		ys[diff.Y] = struct{}{}
		zs[diff.Z] = struct{}{}
		refVals[diff.Reference] = struct{}{}
		candVals[diff.Candidate] = struct{}{}
	}

	d.X = axisStats(xs)
	d.Y = axisStats(ys)
	d.Z = axisStats(zs)
	d.ReferenceValues = sortedKeys(refVals)
	d.CandidateValues = sortedKeys(candVals)

	n := len(r.Differences)
	if n > sampleLimit {
		n = sampleLimit
	}
	d.Sample = make([]SampleDiff, 0, n)
	for _, diff := range r.Differences[:n] {
		d.Sample = append(d.Sample, SampleDiff{
			CellDiff:       diff,
			ReferenceLabel: ref.Label(diff.Reference),
			CandidateLabel: cand.Label(diff.Candidate),
		})
	}

	return d
}

func axisStats(values map[int]struct{}) AxisStats {
	keys := sortedKeys(values)
	return AxisStats{
		Distinct: len(keys),
		Min:      keys[0],
		Max:      keys[len(keys)-1],
	}
}

func sortedKeys(set map[int]struct{}) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Report renders the full human-readable comparison report: header,
// totals, and, when cells differ, the labeled sample and pattern analysis.
func Report(r Result, ref, cand *artifact.Grid) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Model: %s\n", r.Model)
	fmt.Fprintf(&b, "Seed: %d\n", r.Seed)

	if !r.DimensionsMatch {
		fmt.Fprintf(&b, "DIMENSION MISMATCH: reference=%s candidate=%s\n",
			dimString(r.DimensionsReference), dimString(r.DimensionsCandidate))
		return b.String()
	}
	if !r.LengthsMatch {
		fmt.Fprintf(&b, "STATE LENGTH MISMATCH: reference=%d candidate=%d\n",
			r.TotalCells, r.CandidateCells)
		return b.String()
	}

	fmt.Fprintf(&b, "Dimensions: %s\n", dimString(r.DimensionsReference))
	fmt.Fprintf(&b, "Total cells: %d\n", r.TotalCells)
	fmt.Fprintf(&b, "Matching: %d (%.2f%%)\n", r.MatchingCells, r.Accuracy())
	fmt.Fprintf(&b, "Different: %d\n", len(r.Differences))

	if r.Perfect() {
		b.WriteString("\n*** PERFECT MATCH ***\n")
		return b.String()
	}

	d := Summarize(r, ref, cand)

	b.WriteString("\nFirst 20 differences:\n")
	for _, s := range d.Sample {
		fmt.Fprintf(&b, "  (%d,%d,%d): reference=%d(%s) candidate=%d(%s)\n",
			s.X, s.Y, s.Z, s.Reference, s.ReferenceLabel, s.Candidate, s.CandidateLabel)
	}

	b.WriteString("\nDiff pattern analysis:\n")
	fmt.Fprintf(&b, "  Unique X values: %d (range %d-%d)\n", d.X.Distinct, d.X.Min, d.X.Max)
	fmt.Fprintf(&b, "  Unique Y values: %d (range %d-%d)\n", d.Y.Distinct, d.Y.Min, d.Y.Max)
	fmt.Fprintf(&b, "  Unique Z values: %d (range %d-%d)\n", d.Z.Distinct, d.Z.Min, d.Z.Max)
	fmt.Fprintf(&b, "  Reference values in diffs: %v\n", d.ReferenceValues)
	fmt.Fprintf(&b, "  Candidate values in diffs: %v\n", d.CandidateValues)
	fmt.Fprintf(&b, "  First diff at index: %d\n", d.FirstIndex)

	return b.String()
}
