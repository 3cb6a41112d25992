package integration

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var sharedRedis *tcredis.RedisContainer

// NewSharedTestRedis returns a client on a package-wide Redis container.
// The database is flushed for every caller.
func NewSharedTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	ctx := context.Background()
	if sharedRedis == nil {
		container, err := tcredis.Run(ctx, "redis:7-alpine")
		require.NoError(t, err, "Failed to start Redis container")
		sharedRedis = container
	}

	uri, err := sharedRedis.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get Redis connection string")
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}
