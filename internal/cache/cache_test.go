package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type summary struct {
	Active   int            `json:"active"`
	ByStatus map[string]int `json:"by_status"`
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr, client := setupMiniRedis(t)
	c := NewRedisCache(client, "staff:", zap.NewNop())
	ctx := context.Background()

	var got summary
	hit, err := c.GetJSON(ctx, "hr:all", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	want := summary{Active: 12, ByStatus: map[string]int{"ONGOING": 2}}
	require.NoError(t, c.SetJSON(ctx, "hr:all", want, time.Minute))
	assert.True(t, mr.Exists("staff:hr:all"))

	hit, err = c.GetJSON(ctx, "hr:all", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, got)

	mr.FastForward(time.Minute + time.Second)
	hit, err = c.GetJSON(ctx, "hr:all", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheDropsCorruptEntries(t *testing.T) {
	mr, client := setupMiniRedis(t)
	c := NewRedisCache(client, "staff:", zap.NewNop())
	require.NoError(t, mr.Set("staff:bad", "{not json"))

	var got summary
	hit, err := c.GetJSON(context.Background(), "bad", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, mr.Exists("staff:bad"))
}

func TestRedisCacheDelete(t *testing.T) {
	mr, client := setupMiniRedis(t)
	c := NewRedisCache(client, "staff:", zap.NewNop())
	ctx := context.Background()
	require.NoError(t, c.SetJSON(ctx, "a", 1, 0))
	require.NoError(t, c.SetJSON(ctx, "b", 2, 0))
	require.NoError(t, c.Delete(ctx, "a", "b"))
	assert.False(t, mr.Exists("staff:a"))
	assert.NoError(t, c.Delete(ctx))
}

func TestDenylist(t *testing.T) {
	mr, client := setupMiniRedis(t)
	d := NewDenylist(client, "jti:")
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "token-1", time.Now().Add(time.Hour)))
	revoked, err := d.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, d.Revoke(ctx, "token-2", time.Now().Add(-time.Minute)))
	revoked, err = d.IsRevoked(ctx, "token-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = d.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
