package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fuel-station/shift"
	"github.com/warp/fuel-station/store/memory"
	"github.com/warp/fuel-station/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store { return memory.New() })
}

func TestSaveDraft_CopiesPayload(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	payload := []byte(`{"x":1}`)
	require.NoError(t, s.SaveDraft(ctx, shift.Draft{ID: "d", StationID: "st", Payload: payload}))

	payload[2] = 'y'

	got, err := s.GetDraft(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(got.Payload))
}
