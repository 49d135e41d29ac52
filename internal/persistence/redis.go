package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-service/internal/config"
)

// Redis wraps the go-redis client backing the statistics cache.
type Redis struct {
	Client *redis.Client
}

// NewRedis dials Redis. An unreachable server is logged, not fatal; the
// statistics cache degrades to recomputing until it comes back.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unreachable, stats cache disabled until it recovers", zap.Error(err))
	} else {
		logger.Info("redis connected")
	}

	return &Redis{Client: client}
}

// Close releases the client connection.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping reports whether Redis currently answers.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
