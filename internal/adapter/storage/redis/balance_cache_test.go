package redis_test

import (
	"context"
	"testing"
	"time"

	redisStorage "multiledger/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBalanceCache_MissReturnsNil(t *testing.T) {
	_, client := newTestClient(t)
	cache := redisStorage.NewBalanceCache(client)

	balances, err := cache.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, balances)
}

func TestBalanceCache_SetGetRoundTrip(t *testing.T) {
	_, client := newTestClient(t)
	cache := redisStorage.NewBalanceCache(client)
	ctx := context.Background()

	in := map[string]decimal.Decimal{
		"USD": dec("100.00"),
		"EUR": dec("25.50"),
	}
	require.NoError(t, cache.Set(ctx, 1, in, time.Minute))

	out, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out["USD"].Equal(dec("100.00")))
	assert.True(t, out["EUR"].Equal(dec("25.50")))
}

func TestBalanceCache_Invalidate(t *testing.T) {
	_, client := newTestClient(t)
	cache := redisStorage.NewBalanceCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 1, map[string]decimal.Decimal{"USD": dec("10.00")}, time.Minute))
	require.NoError(t, cache.Invalidate(ctx, 1))

	balances, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, balances)
}

func TestBalanceCache_EntryExpires(t *testing.T) {
	mr, client := newTestClient(t)
	cache := redisStorage.NewBalanceCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 1, map[string]decimal.Decimal{"USD": dec("10.00")}, 30*time.Second))

	mr.FastForward(31 * time.Second)

	balances, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, balances)
}

func TestBalanceCache_UsersDoNotCollide(t *testing.T) {
	_, client := newTestClient(t)
	cache := redisStorage.NewBalanceCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 1, map[string]decimal.Decimal{"USD": dec("10.00")}, time.Minute))
	require.NoError(t, cache.Set(ctx, 2, map[string]decimal.Decimal{"USD": dec("99.00")}, time.Minute))

	one, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, one["USD"].Equal(dec("10.00")))

	two, err := cache.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, two["USD"].Equal(dec("99.00")))
}
