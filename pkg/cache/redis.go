package cache

import (
	"context"
	"time"

	"ticket-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient builds a Redis client from config. Redis backs the
// short-TTL availability read cache only; the ledger itself never reads
// from it. Returns nil when no address is configured or the server is
// unreachable, and callers degrade to direct ledger reads.
func NewRedisClient(config utils.RedisConfig, log *zap.Logger) *redis.Client {
	if config.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, availability cache disabled",
			zap.Error(err),
			zap.String("addr", config.Addr),
		)
		return nil
	}

	return client
}
