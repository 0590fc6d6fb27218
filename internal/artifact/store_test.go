package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	base := t.TempDir()
	return NewStore(filepath.Join(base, "reference"), filepath.Join(base, "candidate"))
}

func testGrid() *Grid {
	return &Grid{
		Model:      "Basic",
		Seed:       42,
		Dimensions: [3]int{2, 2, 1},
		Palette:    []string{"B", "W"},
		State:      []int{0, 1, 1, 0},
	}
}

func TestStorePath_NamingConvention(t *testing.T) {
	s := NewStore("/ref", "/cand")

	assert.Equal(t, filepath.Join("/ref", "Basic_seed42.json"), s.Path(RoleReference, "Basic", 42))
	assert.Equal(t, filepath.Join("/cand", "Basic_seed42.json"), s.Path(RoleCandidate, "Basic", 42))
	assert.Equal(t, filepath.Join("/ref", "River_seed-7.json"), s.Path(RoleReference, "River", -7))
}

func TestStorePutGet_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	g := testGrid()

	require.NoError(t, s.Put(RoleReference, g.Model, g.Seed, g))

	got, err := s.Get(RoleReference, g.Model, g.Seed)
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestStoreGet_Absent(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(RoleCandidate, "Missing", 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreHas(t *testing.T) {
	s := newTestStore(t)
	g := testGrid()

	assert.False(t, s.Has(RoleReference, g.Model, g.Seed))
	require.NoError(t, s.Put(RoleReference, g.Model, g.Seed, g))
	assert.True(t, s.Has(RoleReference, g.Model, g.Seed))

	// Roles are isolated: the candidate side is still empty.
	assert.False(t, s.Has(RoleCandidate, g.Model, g.Seed))
}

func TestStoreInvalidate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	g := testGrid()

	require.NoError(t, s.Put(RoleReference, g.Model, g.Seed, g))
	require.NoError(t, s.Invalidate(RoleReference, g.Model, g.Seed))
	assert.False(t, s.Has(RoleReference, g.Model, g.Seed))

	// Second invalidate is a no-op.
	require.NoError(t, s.Invalidate(RoleReference, g.Model, g.Seed))
}

func TestStorePut_LeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	g := testGrid()

	require.NoError(t, s.Put(RoleReference, g.Model, g.Seed, g))

	entries, err := os.ReadDir(s.Dir(RoleReference))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Basic_seed42.json", entries[0].Name())
}

func TestStoreGet_CorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.EnsureDir(RoleReference))
	require.NoError(t, os.WriteFile(s.Path(RoleReference, "Broken", 1), []byte("not json"), 0o644))

	_, err := s.Get(RoleReference, "Broken", 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
