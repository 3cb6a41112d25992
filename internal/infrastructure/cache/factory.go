package cache

import (
	"context"
	"time"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// sweepInterval is how often the in-memory store drops expired keys
const sweepInterval = 5 * time.Minute

// NewIdempotencyStore returns a Redis store when Redis is enabled, otherwise
// an in-memory one. An unreachable Redis is an error rather than a silent
// fallback: two instances with private stores would book the same movement twice.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Enabled {
		log.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(sweepInterval), nil
	}
	store, err := NewRedisIdempotencyStore(ctx, &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, err
	}
	log.Info("using redis idempotency store", zap.String("addr", cfg.Addr()))
	return store, nil
}
