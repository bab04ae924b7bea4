package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 6, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	// GIVEN: a value cached for one minute
	require.NoError(t, m.Set(ctx, "station:4:catalog", []byte("cat"), time.Minute))

	got, err := m.Get(ctx, "station:4:catalog")
	require.NoError(t, err)
	assert.Equal(t, "cat", string(got))

	// WHEN: the TTL elapses
	now = now.Add(time.Minute)

	// THEN: it is a miss
	_, err = m.Get(ctx, "station:4:catalog")
	assert.ErrorIs(t, err, ErrMiss)

}

func TestMemory_SweepsEveryNWrites(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 6, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	m.sweepEvery = 3

	// GIVEN: two entries that have expired
	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Second))
	now = now.Add(time.Minute)

	// WHEN: the third write lands
	require.NoError(t, m.Set(ctx, "c", []byte("3"), time.Minute))

	// THEN: the expired entries are swept
	assert.Equal(t, 1, m.Len())

	// AND: writes in between do not scan
	require.NoError(t, m.Set(ctx, "d", []byte("4"), time.Second))
	now = now.Add(time.Minute)
	require.NoError(t, m.Set(ctx, "e", []byte("5"), time.Hour))
	assert.Equal(t, 3, m.Len())
}

func TestMemory_ZeroTTLIsNotStored(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set(context.Background(), "k", []byte("v"), 0))
	_, err := m.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, k := range []string{"station:4:shifts?page=1", "station:4:catalog", "station:40:catalog"} {
		require.NoError(t, m.Set(ctx, k, []byte("v"), time.Hour))
	}

	require.NoError(t, m.DeletePrefix(ctx, "station:4:"))

	_, err := m.Get(ctx, "station:4:catalog")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = m.Get(ctx, "station:40:catalog")
	assert.NoError(t, err)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	v := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", v, time.Hour))
	v[0] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'z'

	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

// TestRedis runs against a real server when TEST_REDIS_URL is set.
func TestRedis(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	r, err := NewRedis(ctx, url, "fuel-test:")
	require.NoError(t, err)
	t.Cleanup(func() {
		r.DeletePrefix(ctx, "")
		r.Close()
	})

	require.NoError(t, r.Set(ctx, "station:4:catalog", []byte("cat"), time.Minute))
	require.NoError(t, r.Set(ctx, "station:5:catalog", []byte("cat"), time.Minute))

	got, err := r.Get(ctx, "station:4:catalog")
	require.NoError(t, err)
	assert.Equal(t, "cat", string(got))

	require.NoError(t, r.DeletePrefix(ctx, "station:4:"))
	_, err = r.Get(ctx, "station:4:catalog")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = r.Get(ctx, "station:5:catalog")
	assert.NoError(t, err)
}
