package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seatshare/pkg/redis"
)

func setupRedis(t *testing.T) goredis.UniversalClient {
	t.Helper()

	url := os.Getenv("SEATS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SEATS_TEST_REDIS_URL not set")
	}

	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  url,
		RetryAttempts:  1,
		RetryInterval:  time.Millisecond,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestLease(t *testing.T) {
	t.Parallel()

	client := setupRedis(t)
	ctx := context.Background()
	key := "test:lease:" + uuid.NewString()

	first, err := redis.AcquireLease(ctx, client, key, time.Minute)
	require.NoError(t, err)

	_, err = redis.AcquireLease(ctx, client, key, time.Minute)
	require.ErrorIs(t, err, redis.ErrLeaseHeld)

	require.NoError(t, first.Release(ctx))
	assert.ErrorIs(t, first.Release(ctx), redis.ErrLeaseLost)

	second, err := redis.AcquireLease(ctx, client, key, time.Minute)
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}

func TestLease_ExpiredLeaseIsNotReleasedByOldOwner(t *testing.T) {
	t.Parallel()

	client := setupRedis(t)
	ctx := context.Background()
	key := "test:lease:" + uuid.NewString()

	stale, err := redis.AcquireLease(ctx, client, key, 50*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	fresh, err := redis.AcquireLease(ctx, client, key, time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, stale.Release(ctx), redis.ErrLeaseLost)
	require.NoError(t, fresh.Release(ctx))
}

func TestConnect_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: "://nope", ConnectTimeout: time.Second})
	require.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}
