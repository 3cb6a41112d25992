package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/farmacia/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	s := NewInMemoryIdempotencyStore(0)
	s.now = clock.now
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	s, clock := newStore(t)

	ok, err := s.MarkProcessed(ctx, "mv-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkProcessed(ctx, "mv-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second claim within ttl is refused")

	processed, _ := s.IsProcessed(ctx, "mv-1")
	assert.True(t, processed)

	clock.advance(time.Hour)
	processed, _ = s.IsProcessed(ctx, "mv-1")
	assert.False(t, processed)
	ok, _ = s.MarkProcessed(ctx, "mv-1", time.Hour)
	assert.True(t, ok, "expired claims can be taken again")
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	_, _ = s.MarkProcessed(ctx, "mv-2", time.Hour)
	require.NoError(t, s.Release(ctx, "mv-2"))
	ok, _ := s.MarkProcessed(ctx, "mv-2", time.Hour)
	assert.True(t, ok)
	assert.NoError(t, s.Release(ctx, "never-claimed"))
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	ctx := context.Background()
	s, clock := newStore(t)
	_, _ = s.MarkProcessed(ctx, "short", time.Minute)
	_, _ = s.MarkProcessed(ctx, "long", time.Hour)
	clock.advance(2 * time.Minute)
	s.sweep()
	assert.Equal(t, 1, s.Size())
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.MarkProcessed(ctx, "same-key", time.Hour); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	s := NewInMemoryIdempotencyStore(time.Millisecond)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestNewIdempotencyStore(t *testing.T) {
	store, err := NewIdempotencyStore(context.Background(), config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	_ = store.Close()

	_, err = NewIdempotencyStore(context.Background(), config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}, zap.NewNop())
	assert.Error(t, err, "an unreachable redis is not silently replaced")
}
