package redis_test

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraredis "github.com/kislikjeka/safewallet/internal/infra/redis"
	"github.com/kislikjeka/safewallet/pkg/logger"
)

// setupTestRedis creates a test Redis client, skipping when no local Redis
// is reachable.
func setupTestRedis(t *testing.T) *goredis.Client {
	t.Helper()

	client := goredis.NewClient(&goredis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping test: Redis not available")
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test database: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := infraredis.NewStore(setupTestRedis(t), logger.Discard())

	_, found, err := store.Get(ctx, "expenses_anon")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "expenses_anon", `[]`))

	value, found, err := store.Get(ctx, "expenses_anon")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, value)
}

func TestStore_KeysAndDeleteMany(t *testing.T) {
	ctx := context.Background()
	store := infraredis.NewStore(setupTestRedis(t), logger.Discard())

	require.NoError(t, store.Set(ctx, "exchange_rate_HNL_USD", `{}`))
	require.NoError(t, store.Set(ctx, "exchange_rate_EUR_USD", `{}`))
	require.NoError(t, store.Set(ctx, "budget_user-1", "200"))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"exchange_rate_HNL_USD",
		"exchange_rate_EUR_USD",
		"budget_user-1",
	}, keys)

	require.NoError(t, store.DeleteMany(ctx, []string{
		"exchange_rate_HNL_USD",
		"exchange_rate_EUR_USD",
	}))

	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"budget_user-1"}, keys)
}
