package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fuel-station/shift"
	"github.com/warp/fuel-station/store/sqlite"
	"github.com/warp/fuel-station/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store {
		s, err := sqlite.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestStore_ReopenKeepsDrafts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fuel.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveDraft(ctx, shift.Draft{ID: "d-1", StationID: "st-1", Payload: []byte(`{}`)}))
	require.NoError(t, s.Close())

	// WHEN: reopening (migration runs again)
	s, err = sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// THEN: the draft is still there
	d, err := s.GetDraft(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, shift.StationID("st-1"), d.StationID)
}
