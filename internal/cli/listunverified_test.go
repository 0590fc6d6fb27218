package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUnverified_GroupsAndExtents(t *testing.T) {
	ws := newTestWorkspace(t)
	// Basic is verified, PillarsOfEternity failed a re-check. Failed
	// models still need verification, so Pillars is listed.
	ws.writeLedger(t, `{
  "failed": {
    "PillarsOfEternity": {
      "accuracy": 50.0,
      "reason": "50.00% (256 cells differ)",
      "seed": 42
    }
  },
  "skipped": {},
  "verified": {
    "Basic": {
      "accuracy": 100,
      "seed": 42
    }
  }
}`)

	out, err := runCommand(t, ws, "list-unverified")
	require.NoError(t, err)

	want := "Unverified models (2):\n" +
		"\n" +
		"2D Models:\n" +
		"  River (10x10)\n" +
		"\n3D Models:\n" +
		"  PillarsOfEternity (8x8x8)\n"
	assert.Equal(t, want, out)
}

func TestListUnverified_LedgerSkippedExcluded(t *testing.T) {
	ws := newTestWorkspace(t)
	ws.writeLedger(t, `{
  "failed": {},
  "skipped": {
    "River": {
      "reason": "flaky on CI"
    }
  },
  "verified": {
    "Basic": {
      "accuracy": 100,
      "seed": 42
    }
  }
}`)

	out, err := runCommand(t, ws, "list-unverified")
	require.NoError(t, err)

	// Only the 3D group remains, and its separating blank line stays.
	want := "Unverified models (1):\n" +
		"\n" +
		"\n3D Models:\n" +
		"  PillarsOfEternity (8x8x8)\n"
	assert.Equal(t, want, out)
}

func TestListUnverified_JSON(t *testing.T) {
	ws := newTestWorkspace(t)

	out, err := runCommand(t, ws, "--format", "json", "list-unverified")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := dataMap(t, resp)
	assert.Equal(t, float64(3), data["count"])

	models2D, ok := data["models_2d"].([]interface{})
	require.True(t, ok)
	require.Len(t, models2D, 2)
	first, ok := models2D[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Basic", first["name"])
}
