package storage

import (
	"context"
	"testing"
	"time"

	common "bank_etl/internal/app/common/exception_handler"
	"bank_etl/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestPageCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cache, err := NewRedis(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	defer cache.Close()

	const ref = "https://example.com/banks"
	_, ok, err := cache.GetPage(ctx, ref)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.SetPage(ctx, ref, "<table></table>", time.Hour))
	require.True(t, mr.Exists(utils.PageCacheKey(ref)))
	require.Equal(t, time.Hour, mr.TTL(utils.PageCacheKey(ref)))

	page, ok, err := cache.GetPage(ctx, ref)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "<table></table>", page)

	mr.FastForward(2 * time.Hour)
	_, ok, err = cache.GetPage(ctx, ref)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), addr, "", 0)
	require.Error(t, err)
	require.True(t, common.HasCode(err, common.ErrCacheConnect))
}
