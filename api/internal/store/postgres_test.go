package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-explorer/api/internal/explore"
)

func TestDetectionsSQLClearsThenUpsertsPositives(t *testing.T) {
	snap := sampleSnapshot()
	stmts, args := detectionsSQL(snap)
	require.Len(t, stmts, 2)
	require.Len(t, args, 2)

	assert.Equal(t, "delete from detections", stmts[0])
	assert.Empty(t, args[0])

	assert.Contains(t, stmts[1], "on conflict (x, y) do update")
	e := snap.Visited[1]
	assert.Equal(t, []any{1, 0, e.ImageRef, e.ObservedAt}, args[1])
}

func TestDetectionsSQLNegativeRevisitDropsRow(t *testing.T) {
	snap := sampleSnapshot()
	snap.Visited[1].HumanDetected = false

	stmts, _ := detectionsSQL(snap)
	require.Len(t, stmts, 1, "only the clearing delete remains")
	assert.True(t, strings.HasPrefix(stmts[0], "delete"))
}

// newTestPostgres needs a disposable database in DATABASE_URL; the tests
// overwrite its exploration tables.
func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pg, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pg.Save(context.Background(), explore.DefaultSnapshot())
		_ = pg.Close()
	})
	return pg
}

func TestPostgresRoundTrip(t *testing.T) {
	pg := newTestPostgres(t)
	ctx := context.Background()
	want := sampleSnapshot()

	require.NoError(t, pg.Save(ctx, want))
	got, err := pg.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestPostgresDetectionsFollowSnapshot(t *testing.T) {
	pg := newTestPostgres(t)
	ctx := context.Background()
	snap := sampleSnapshot()

	require.NoError(t, pg.Save(ctx, snap))
	got, err := pg.Detections(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, explore.Position{X: 1, Y: 0}, got[0].Position)

	// re-imaged positive keeps only the latest frame
	snap.Visited[1].ImageRef = "uploads/pos_1_0_00000002.png"
	snap.Visited[1].ObservedAt = snap.Visited[1].ObservedAt.Add(time.Minute)
	require.NoError(t, pg.Save(ctx, snap))
	got, err = pg.Detections(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "uploads/pos_1_0_00000002.png", got[0].ImageRef)

	// re-imaged negative removes the sighting
	snap.Visited[1].HumanDetected = false
	require.NoError(t, pg.Save(ctx, snap))
	got, err = pg.Detections(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
