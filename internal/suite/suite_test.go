package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSuite(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ValidSuite(t *testing.T) {
	path := writeSuite(t, `
name: smoke
description: quick parity check before merging engine changes
models:
  - Basic
  - River
  - MazeGrowth
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "smoke", s.Name)
	assert.Equal(t, "quick parity check before merging engine changes", s.Description)
	assert.Equal(t, 0, s.Seed)
	assert.Equal(t, []string{"Basic", "River", "MazeGrowth"}, s.Models)
}

func TestLoad_SeedOverride(t *testing.T) {
	path := writeSuite(t, `
name: reseeded
seed: 1234
models: [Basic]
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1234, s.Seed)
	assert.Equal(t, 1234, s.SeedOr(42))
}

func TestSeedOr_DefaultWhenUnset(t *testing.T) {
	s := &Suite{Name: "smoke", Models: []string{"Basic"}}
	assert.Equal(t, 42, s.SeedOr(42))
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeSuite(t, `
name: smoke
model: [Basic]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")
}

func TestLoad_MissingName(t *testing.T) {
	path := writeSuite(t, `models: [Basic]`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoad_EmptyModels(t *testing.T) {
	path := writeSuite(t, `name: empty`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "models list is required")
}

func TestLoad_BlankModelEntry(t *testing.T) {
	path := writeSuite(t, `
name: blank
models:
  - Basic
  - "  "
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "models[1]")
}

func TestLoad_DuplicateModel(t *testing.T) {
	path := writeSuite(t, `
name: dupes
models: [Basic, River, Basic]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoad_NegativeSeed(t *testing.T) {
	path := writeSuite(t, `
name: bad
seed: -1
models: [Basic]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed must not be negative")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
