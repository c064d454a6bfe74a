package persistence

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStorage(t *testing.T) (*miniredis.Miniredis, *RedisStorage) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStorage(client, "limiter:")
}

func TestRedisStorageSetGet(t *testing.T) {
	mr, store := setupStorage(t)

	require.NoError(t, store.Set("10.0.0.1", []byte("3"), time.Minute))
	got, err := store.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
	assert.True(t, mr.Exists("limiter:10.0.0.1"))

	mr.FastForward(2 * time.Minute)
	got, err = store.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStorageMissingAndEmpty(t *testing.T) {
	_, store := setupStorage(t)

	got, err := store.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, store.Set("", []byte("x"), 0))
	assert.NoError(t, store.Set("k", nil, 0))
	got, err = store.Get("k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStorageDeleteAndReset(t *testing.T) {
	mr, store := setupStorage(t)
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, store.Set("a", []byte("1"), 0))
	require.NoError(t, store.Set("b", []byte("2"), 0))
	require.NoError(t, store.Delete("a"))
	assert.False(t, mr.Exists("limiter:a"))

	require.NoError(t, store.Reset())
	assert.False(t, mr.Exists("limiter:b"))
	assert.True(t, mr.Exists("other:key"))
	assert.NoError(t, store.Close())
}
