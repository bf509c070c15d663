package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_NilClientIsAlwaysAMiss(t *testing.T) {
	ctx := context.Background()
	cache := NewRedisCache(nil)

	require.NoError(t, cache.Set(ctx, "orders:user:1", []string{"a"}, time.Minute))
	var dest []string
	hit, err := cache.Get(ctx, "orders:user:1", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.Delete(ctx, "orders:user:1"))
	require.NoError(t, cache.Bump(ctx, "orders:user:1:gen"))
	gen, err := cache.Generation(ctx, "orders:user:1:gen")
	require.NoError(t, err)
	assert.Zero(t, gen)

	var unset *RedisCache
	hit, err = unset.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}
