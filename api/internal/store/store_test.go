package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-explorer/api/internal/explore"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSnapshot() explore.Snapshot {
	at := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	return explore.Snapshot{
		Robot: explore.RobotState{
			Current:         explore.Position{X: 1, Y: 0},
			IsRunning:       true,
			WaitingForImage: false,
			GateEpoch:       3,
			LastUpdate:      at,
		},
		Visited: []explore.VisitedEntry{
			{Position: explore.Position{X: 0, Y: 0}, ImageRef: "uploads/pos_0_0_deadbeef.jpg", ObservedAt: at},
			{Position: explore.Position{X: 1, Y: 0}, HumanDetected: true, ImageRef: "uploads/pos_1_0_cafebabe.png", ObservedAt: at.Add(time.Second)},
		},
		Frontier: []explore.Position{{X: 0, Y: 1}, {X: 2, Y: 0}, {X: 1, Y: 1}},
	}
}

func TestSQLiteEmptyHasNoSnapshot(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, explore.ErrNoSnapshot)
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	want := sampleSnapshot()

	require.NoError(t, s.Save(ctx, want))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	// second save replaces the row
	want.Robot.IsRunning = false
	want.Frontier = want.Frontier[:1]
	require.NoError(t, s.Save(ctx, want))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch after overwrite (-want +got):\n%s", diff)
	}

	var rows int
	require.NoError(t, s.DB.QueryRow(`SELECT count(*) FROM exploration_snapshot`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestSQLiteCorruptBlob(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.DB.Exec(`INSERT INTO exploration_snapshot (id, snapshot, updated_at) VALUES (1, ?, 'x')`, []byte{0xff, 0x00, 0x13})
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, explore.ErrCorruptSnapshot)
}

func TestSQLiteMigrationsApplied(t *testing.T) {
	s := newTestSQLite(t)
	v, dirty, err := MigrateVersion(s.DB, "sqlite")
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, 1, v)

	// re-running is a no-op
	require.NoError(t, MigrateUp(s.DB, "sqlite"))
}

func TestMemoryStoreCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_, err := m.Load(ctx)
	assert.ErrorIs(t, err, explore.ErrNoSnapshot)

	snap := sampleSnapshot()
	require.NoError(t, m.Save(ctx, snap))
	snap.Frontier[0] = explore.Position{X: 9, Y: 9}

	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, explore.Position{X: 0, Y: 1}, got.Frontier[0])

	got.Visited[0].HumanDetected = true
	again, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, again.Visited[0].HumanDetected)
}

func TestControllerSurvivesRestartOnSQLite(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c, err := explore.Open(ctx, s)
	require.NoError(t, err)
	_, err = c.Start(ctx)
	require.NoError(t, err)
	_, err = c.ReportPosition(ctx, explore.Position{X: 0, Y: 0})
	require.NoError(t, err)
	ticket, err := c.PrepareImage()
	require.NoError(t, err)
	_, err = c.SubmitImage(ctx, ticket, true, "uploads/pos_0_0_00000000.jpg")
	require.NoError(t, err)

	before := c.QueryStatus()
	reopened, err := explore.Open(ctx, s)
	require.NoError(t, err)
	if diff := cmp.Diff(before, reopened.QueryStatus()); diff != "" {
		t.Errorf("status changed across restart (-want +got):\n%s", diff)
	}
	view := reopened.Map()
	require.Len(t, view.Visited, 1)
	assert.True(t, view.Visited[0].HumanDetected)
}

func TestOpenKinds(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, "memory", "", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)

	b, err = Open(ctx, "sqlite", "", ":memory:")
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, b)
	require.NoError(t, b.Ping(ctx))
	require.NoError(t, b.Close())

	_, err = Open(ctx, "postgres", "", "")
	assert.Error(t, err)

	_, err = Open(ctx, "redis", "", "")
	assert.Error(t, err)
}

func TestSafeDSNSummaryHidesPassword(t *testing.T) {
	got := SafeDSNSummary("postgres://robot:s3cret@db:5432/explorer?sslmode=disable")
	assert.Equal(t, "host=db port=5432 db=explorer user=robot", got)
	assert.NotContains(t, got, "s3cret")
}
