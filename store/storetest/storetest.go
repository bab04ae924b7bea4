// Package storetest holds the behaviour every shift.DraftStore and
// shift.RunLog implementation must share. Implementations call Run from
// their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fuel-station/shift"
)

// Store is what the suite needs: both interfaces plus a settable clock.
type Store interface {
	shift.DraftStore
	shift.RunLog
	SetClock(now func() time.Time)
}

// Clock is a manually advanced time source.
type Clock struct {
	t time.Time
}

func NewClock(start time.Time) *Clock { return &Clock{t: start} }

func (c *Clock) Now() time.Time          { return c.t }
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// Run executes the shared suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("DraftLifecycle", func(t *testing.T) { testDraftLifecycle(t, newStore(t)) })
	t.Run("ListDraftsOrder", func(t *testing.T) { testListDraftsOrder(t, newStore(t)) })
	t.Run("PurgeDrafts", func(t *testing.T) { testPurgeDrafts(t, newStore(t)) })
	t.Run("RunLog", func(t *testing.T) { testRunLog(t, newStore(t)) })
}

var start = time.Date(2025, time.March, 10, 6, 0, 0, 0, time.UTC)

func testDraftLifecycle(t *testing.T, s Store) {
	ctx := context.Background()
	clock := NewClock(start)
	s.SetClock(clock.Now)

	// GIVEN: a saved draft
	d := shift.Draft{ID: "d-1", StationID: "st-1", Label: "morning", Payload: []byte(`{"a":1}`)}
	require.NoError(t, s.SaveDraft(ctx, d))

	got, err := s.GetDraft(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "morning", got.Label)
	assert.JSONEq(t, `{"a":1}`, string(got.Payload))
	assert.True(t, got.CreatedAt.Equal(start))

	// WHEN: saving it again later
	clock.Advance(time.Hour)
	d.Payload = []byte(`{"a":2}`)
	d.ShiftID = "sh-9"
	require.NoError(t, s.SaveDraft(ctx, d))

	// THEN: content and UpdatedAt change, CreatedAt does not
	got, err = s.GetDraft(ctx, "d-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(got.Payload))
	assert.Equal(t, shift.ShiftID("sh-9"), got.ShiftID)
	assert.True(t, got.CreatedAt.Equal(start))
	assert.True(t, got.UpdatedAt.Equal(start.Add(time.Hour)))

	// AND: delete removes it, a second delete reports not found
	require.NoError(t, s.DeleteDraft(ctx, "d-1"))
	_, err = s.GetDraft(ctx, "d-1")
	assert.ErrorIs(t, err, shift.ErrDraftNotFound)
	assert.ErrorIs(t, s.DeleteDraft(ctx, "d-1"), shift.ErrDraftNotFound)
}

func testListDraftsOrder(t *testing.T, s Store) {
	ctx := context.Background()
	clock := NewClock(start)
	s.SetClock(clock.Now)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.SaveDraft(ctx, shift.Draft{ID: id, StationID: "st-1", Payload: []byte("{}")}))
		clock.Advance(time.Minute)
	}
	require.NoError(t, s.SaveDraft(ctx, shift.Draft{ID: "other", StationID: "st-2", Payload: []byte("{}")}))

	// Touching "a" moves it to the front
	clock.Advance(time.Minute)
	require.NoError(t, s.SaveDraft(ctx, shift.Draft{ID: "a", StationID: "st-1", Payload: []byte("{}")}))

	drafts, err := s.ListDrafts(ctx, "st-1")
	require.NoError(t, err)
	var ids []string
	for _, d := range drafts {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids)
}

func testPurgeDrafts(t *testing.T, s Store) {
	ctx := context.Background()
	clock := NewClock(start)
	s.SetClock(clock.Now)

	require.NoError(t, s.SaveDraft(ctx, shift.Draft{ID: "old", StationID: "st-1", Payload: []byte("{}")}))
	clock.Advance(48 * time.Hour)
	require.NoError(t, s.SaveDraft(ctx, shift.Draft{ID: "fresh", StationID: "st-1", Payload: []byte("{}")}))

	n, err := s.PurgeDraftsBefore(ctx, clock.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetDraft(ctx, "old")
	assert.ErrorIs(t, err, shift.ErrDraftNotFound)
	_, err = s.GetDraft(ctx, "fresh")
	assert.NoError(t, err)
}

func testRunLog(t *testing.T, s Store) {
	ctx := context.Background()
	collected := decimal.RequireFromString("480000.50")
	variance := decimal.RequireFromString("-19999.50")

	first := shift.Run{
		ID:                    "r-1",
		ShiftID:               "sh-1",
		StationID:             "st-1",
		CashRemaining:         decimal.RequireFromString("700000"),
		TotalOtherDistributed: decimal.RequireFromString("200000"),
		MainLedgerAmount:      decimal.RequireFromString("500000"),
		CollectedAmount:       &collected,
		Variance:              &variance,
		Balanced:              true,
		ClosedAt:              start.Add(8 * time.Hour),
	}
	second := shift.Run{
		ID:                    "r-2",
		ShiftID:               "sh-2",
		StationID:             "st-1",
		CashRemaining:         decimal.RequireFromString("10.125"),
		TotalOtherDistributed: decimal.Zero,
		MainLedgerAmount:      decimal.RequireFromString("10.125"),
		Balanced:              true,
		ClosedAt:              start.Add(16 * time.Hour),
	}
	require.NoError(t, s.RecordRun(ctx, first))
	require.NoError(t, s.RecordRun(ctx, second))
	require.NoError(t, s.RecordRun(ctx, shift.Run{ID: "r-3", StationID: "st-2", ClosedAt: start}))

	runs, err := s.ListRuns(ctx, "st-1")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "r-2", runs[0].ID)
	assert.Nil(t, runs[0].CollectedAmount)
	assert.True(t, runs[0].MainLedgerAmount.Equal(second.MainLedgerAmount))

	assert.Equal(t, "r-1", runs[1].ID)
	require.NotNil(t, runs[1].Variance)
	assert.True(t, runs[1].Variance.Equal(variance))
	assert.True(t, runs[1].CollectedAmount.Equal(collected))
	assert.True(t, runs[1].ClosedAt.Equal(first.ClosedAt))
}
