package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxstudio/gridparity/internal/testutil"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *testutil.FixedClock) {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := testutil.NewFixedClock(testStart)
	s.SetClock(clock.Now)
	s.SetIDGenerator(testutil.NewSequenceIDGenerator("run"))
	return s, clock
}

func TestAppend_AndRecent(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	models := []string{"Basic", "River", "Maze"}
	for _, m := range models {
		_, err := s.Append(ctx, RunRecord{
			BatchID:    "batch-1",
			Model:      m,
			Seed:       42,
			Status:     "verified",
			Accuracy:   100,
			DurationMS: 1500,
		})
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	recs, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "Maze", recs[0].Model, "most recent run first")
	assert.Equal(t, "River", recs[1].Model)
	assert.Equal(t, "Basic", recs[2].Model)

	first := recs[2]
	assert.Equal(t, "run-000001", first.ID)
	assert.Equal(t, "batch-1", first.BatchID)
	assert.Equal(t, 42, first.Seed)
	assert.Equal(t, "verified", first.Status)
	assert.Equal(t, 100.0, first.Accuracy)
	assert.Equal(t, int64(1500), first.DurationMS)
	assert.True(t, first.CreatedAt.Equal(testStart))
}

func TestRecent_ModelFilter(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.Append(ctx, RunRecord{Model: "Basic", Status: "failed", Accuracy: 95, Reason: "95.00% (8 cells differ)"})
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	_, err := s.Append(ctx, RunRecord{Model: "River", Status: "verified", Accuracy: 100})
	require.NoError(t, err)

	recs, err := s.Recent(ctx, "Basic", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, "Basic", r.Model)
	}
}

func TestRecent_Limit(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, RunRecord{Model: "Basic", Status: "verified", Accuracy: 100})
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	recs, err := s.Recent(ctx, "Basic", 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRecent_TieBreakWithinSameSecond(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, RunRecord{Model: "First", Status: "verified", Accuracy: 100})
	require.NoError(t, err)
	_, err = s.Append(ctx, RunRecord{Model: "Second", Status: "verified", Accuracy: 100})
	require.NoError(t, err)

	recs, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Second", recs[0].Model, "equal timestamps fall back to id order")
}

func TestRecent_EmptyStore(t *testing.T) {
	s, _ := newTestStore(t)

	recs, err := s.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestAppend_FillsIDAndTimestamp(t *testing.T) {
	s, _ := newTestStore(t)

	id, err := s.Append(context.Background(), RunRecord{Model: "Basic", Status: "verified", Accuracy: 100})
	require.NoError(t, err)
	assert.Equal(t, "run-000001", id)
}

func TestAppend_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := RunRecord{ID: "fixed-id", Model: "Basic", Status: "verified", Accuracy: 100}
	_, err := s.Append(ctx, rec)
	require.NoError(t, err)
	_, err = s.Append(ctx, rec)
	require.NoError(t, err)

	recs, err := s.Recent(ctx, "Basic", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestAppend_RequiresModel(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Append(context.Background(), RunRecord{Status: "verified"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	s.SetIDGenerator(testutil.NewSequenceIDGenerator("run"))
	_, err = s.Append(context.Background(), RunRecord{Model: "Basic", Status: "verified", Accuracy: 100})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	recs, err := s.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}

	a := gen.NewID()
	b := gen.NewID()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}
