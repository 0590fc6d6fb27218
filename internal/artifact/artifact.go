// Package artifact holds the grid snapshot format shared by both engines
// and the on-disk store that caches one artifact per (model, seed, engine).
package artifact

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Role identifies which engine produced an artifact.
type Role string

const (
	// RoleReference is the trusted engine whose output is ground truth.
	RoleReference Role = "reference"
	// RoleCandidate is the engine under verification.
	RoleCandidate Role = "candidate"
)

// Grid is one engine's captured grid state for a (model, seed) run.
//
// State is row-major with x fastest, then y, then z; values index into
// Palette. The serialized field order matches what both engines emit.
// State is deliberately []int, not []byte: a byte slice would serialize
// as base64 and break the cross-engine JSON contract.
type Grid struct {
	Model      string   `json:"model"`
	Seed       int      `json:"seed"`
	Dimensions [3]int   `json:"dimensions"`
	Palette    []string `json:"characters"`
	State      []int    `json:"state"`
}

// Cells returns the cell count implied by the declared dimensions.
// A well-formed grid has len(State) == Cells().
func (g *Grid) Cells() int {
	return g.Dimensions[0] * g.Dimensions[1] * g.Dimensions[2]
}

// Label returns the palette label for a state value, or "?" when the
// value has no palette entry.
func (g *Grid) Label(value int) string {
	if value < 0 || value >= len(g.Palette) {
		return "?"
	}
	return g.Palette[value]
}

// Decode parses an artifact file's bytes.
//
// Palette labels are normalized to NFC at this boundary so diagnostics
// render multi-byte labels consistently regardless of which engine wrote
// them. State values are untouched.
func Decode(data []byte) (*Grid, error) {
	var g Grid
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	for i, label := range g.Palette {
		g.Palette[i] = norm.NFC.String(label)
	}
	return &g, nil
}

// Encode renders the artifact in the shared on-disk form:
// two-space indent, fields in engine emission order.
func (g *Grid) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return data, nil
}
