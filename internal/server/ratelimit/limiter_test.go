package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisStore(client)
}

func TestLimiter_EleventhRequestRejected(t *testing.T) {
	_, store := newMiniredis(t)
	l := NewLimiter(store, 10, time.Minute, logging.NewNopLogger())
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		res := l.Allow(ctx, "/api/contacts/", "10.0.0.1")
		require.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, i, res.Count)
	}

	res := l.Allow(ctx, "/api/contacts/", "10.0.0.1")
	assert.False(t, res.Allowed)
	assert.Equal(t, 10, res.Count)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, res.RetryAfter, time.Minute)
}

func TestLimiter_RejectionDoesNotCount(t *testing.T) {
	mr, store := newMiniredis(t)
	l := NewLimiter(store, 2, time.Minute, logging.NewNopLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.Allow(ctx, "r", "c")
	}

	v, err := mr.Get("ratelimit:r:c")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	_, store := newMiniredis(t)
	l := NewLimiter(store, 1, time.Minute, logging.NewNopLogger())
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "/a", "1.1.1.1").Allowed)
	assert.False(t, l.Allow(ctx, "/a", "1.1.1.1").Allowed)
	assert.True(t, l.Allow(ctx, "/b", "1.1.1.1").Allowed)
	assert.True(t, l.Allow(ctx, "/a", "2.2.2.2").Allowed)
}

func TestLimiter_WindowExpires(t *testing.T) {
	mr, store := newMiniredis(t)
	l := NewLimiter(store, 1, time.Minute, logging.NewNopLogger())
	ctx := context.Background()

	require.True(t, l.Allow(ctx, "/a", "c").Allowed)
	require.False(t, l.Allow(ctx, "/a", "c").Allowed)

	mr.FastForward(61 * time.Second)
	assert.True(t, l.Allow(ctx, "/a", "c").Allowed)
}

type failingStore struct{}

func (failingStore) Take(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("redis down")
}

func TestLimiter_FailsOpen(t *testing.T) {
	l := NewLimiter(failingStore{}, 1, time.Minute, logging.NewNopLogger())
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(context.Background(), "/a", "c").Allowed)
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := NewRedisClient(context.Background(), addr, "", 0)
	require.ErrorContains(t, err, "redis ping")
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	// the store keeps working against a dead server by failing open
	l := NewLimiter(NewRedisStore(client), 1, time.Minute, logging.NewNopLogger())
	assert.True(t, l.Allow(context.Background(), "GET /", "1.2.3.4").Allowed)
}
