package journal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/aiftbot/core/dispatch"
)

func TestFromRecord(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	e := fromRecord(dispatch.Record{
		UserID:      "42",
		Modality:    "text",
		Route:       dispatch.RouteNLP,
		StateBefore: "awaiting_command",
		Status:      "fail",
		Error:       "boom",
		Duration:    1500 * time.Millisecond,
		At:          at,
	}, time.Now)

	assert.Equal(t, "42", e.UserID)
	assert.Equal(t, string(dispatch.RouteNLP), e.Route)
	assert.Equal(t, int64(1500), e.DurationMS)
	assert.Equal(t, time.UTC, e.CreatedAt.Location())
	assert.True(t, e.CreatedAt.Equal(at))
}

func TestFromRecordDefaultsTime(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := fromRecord(dispatch.Record{Route: dispatch.RouteChat}, func() time.Time { return fixed })
	assert.Equal(t, fixed, e.CreatedAt)
}

func TestNop(t *testing.T) {
	var r dispatch.Recorder = Nop{}
	assert.NoError(t, r.Record(context.Background(), dispatch.Record{}))
}

// TestStoreRoundTrip needs a migrated database; set JOURNAL_TEST_DSN to run it.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("JOURNAL_TEST_DSN")
	if dsn == "" {
		t.Skip("JOURNAL_TEST_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	s := New(db)
	user := "journal-test-" + time.Now().Format("150405.000")
	require.NoError(t, s.Record(ctx, dispatch.Record{UserID: user, Modality: "text", Route: dispatch.RouteCancel, Status: "ok"}))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, recent)

	counts, err := s.RouteCounts(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	found := false
	for _, c := range counts {
		if c.Route == string(dispatch.RouteCancel) {
			found = c.Count > 0
		}
	}
	assert.True(t, found)
}
