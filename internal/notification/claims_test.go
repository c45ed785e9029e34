package notification

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClaimStore(t *testing.T) (*RedisClaimStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisClaimStore(client), mr
}

func TestRedisClaimStore_ClaimOnce(t *testing.T) {
	store, mr := newTestClaimStore(t)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "dispatch:sent:req1:r1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, "dispatch:sent:req1:r1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, mr.Exists("notif:dispatch:sent:req1:r1"))
	assert.Equal(t, time.Hour, mr.TTL("notif:dispatch:sent:req1:r1"))
}

func TestRedisClaimStore_Release(t *testing.T) {
	store, _ := newTestClaimStore(t)
	ctx := context.Background()

	_, err := store.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k"))

	ok, err := store.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisClaimStore_Unavailable(t *testing.T) {
	store, mr := newTestClaimStore(t)
	mr.Close()

	_, err := store.Claim(context.Background(), "k", time.Hour)
	assert.Error(t, err)
}

func TestConnectRedis_EmptyURL(t *testing.T) {
	client, err := ConnectRedis(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestMemoryClaimStore(t *testing.T) {
	store := NewMemoryClaimStore(time.Minute)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "dispatch:sent:req1:r1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, "dispatch:sent:req1:r1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must be rejected")

	require.NoError(t, store.Release(ctx, "dispatch:sent:req1:r1"))
	ok, err = store.Claim(ctx, "dispatch:sent:req1:r1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "released key can be claimed again")
}

func TestMemoryClaimStore_Expiry(t *testing.T) {
	store := NewMemoryClaimStore(0)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)

	ok, err = store.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "expired claim can be taken again")
}
