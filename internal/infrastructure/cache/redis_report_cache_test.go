package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%d", host, port.Int())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisReportCache(t *testing.T) {
	client := startRedis(t)
	c := NewRedisReportCacheWithClient(client, "test:", time.Minute)
	ctx := context.Background()

	t.Run("get and set", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "crm:summary", []byte(`{"clients":3}`)))

		value, ok, err := c.Get(ctx, "crm:summary")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"clients":3}`, string(value))

		ttl, err := client.TTL(ctx, "test:crm:summary").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("miss", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete prefix across scan batches", func(t *testing.T) {
		for i := range 450 {
			require.NoError(t, c.Set(ctx, fmt.Sprintf("crm:client:%d", i), []byte("x")))
		}
		require.NoError(t, c.Set(ctx, "keep:me", []byte("y")))

		require.NoError(t, c.DeletePrefix(ctx, "crm:"))

		keys, err := client.Keys(ctx, "test:crm:*").Result()
		require.NoError(t, err)
		assert.Empty(t, keys)

		_, ok, err := c.Get(ctx, "keep:me")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	require.NoError(t, c.Ping(ctx))
}

func configWithUnreachableRedis() config.RedisConfig {
	return config.RedisConfig{Host: "127.0.0.1", Port: 1, CacheTTL: time.Minute}
}

func TestReportCacheFactory_FallsBackToMemory(t *testing.T) {
	f := NewReportCacheFactory(configWithUnreachableRedis())

	c, err := f.CreateCache()
	require.NoError(t, err)
	defer c.Close()

	_, isMemory := c.(*InMemoryReportCache)
	assert.True(t, isMemory)
}

func TestReportCacheFactory_NoFallback(t *testing.T) {
	f := NewReportCacheFactory(configWithUnreachableRedis(), WithInMemoryFallback(false))

	_, err := f.CreateCache()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redis required")
}
