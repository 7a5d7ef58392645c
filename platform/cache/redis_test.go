package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := NewWithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type payload struct {
	Total float64 `json:"total"`
}

func TestClient_SetGetJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetJSON(ctx, "analytics:base", payload{Total: 42}, time.Minute))
	assert.True(t, mr.Exists("test:analytics:base"))

	var got payload
	hit, err := client.GetJSON(ctx, "analytics:base", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42.0, got.Total)
}

func TestClient_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)

	var got payload
	hit, err := client.GetJSON(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestClient_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetJSON(ctx, "k", payload{Total: 1}, time.Minute))
	mr.FastForward(2 * time.Minute)

	hit, err := client.GetJSON(ctx, "k", &payload{})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestClient_DeletePattern(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetJSON(ctx, "analytics:a", 1, time.Minute))
	require.NoError(t, client.SetJSON(ctx, "analytics:b", 2, time.Minute))
	require.NoError(t, client.SetJSON(ctx, "incentives:config", 3, time.Minute))

	require.NoError(t, client.DeletePattern(ctx, "analytics:*"))

	assert.False(t, mr.Exists("test:analytics:a"))
	assert.False(t, mr.Exists("test:analytics:b"))
	assert.True(t, mr.Exists("test:incentives:config"))
}
