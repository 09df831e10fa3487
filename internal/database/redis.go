package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/animerec/internal/config"
)

// NewRedis connects the shared Redis used for the title cache and rate limiting. It returns a
// nil client when no URL is configured. The URL is either host:port or a redis:// URL.
//
// A client is returned even when the initial ping fails; callers treat Redis as optional.
func NewRedis(cfg config.RedisConfig, logger *logrus.Logger) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts := &redis.Options{Addr: cfg.URL}
	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		opts = parsed
	}
	opts.MaxRetries = cfg.MaxRetries
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.Timeout > 0 {
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).WithField("addr", opts.Addr).Warn("Redis not reachable, continuing without it until it recovers")
		return client, nil
	}

	logger.WithField("addr", opts.Addr).Info("Redis connection established")
	return client, nil
}
