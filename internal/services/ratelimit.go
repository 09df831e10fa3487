package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimitInfo describes the caller's window after a check.
type RateLimitInfo struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// RateLimiter implements sliding window rate limiting using Redis sorted sets.
type RateLimiter struct {
	redisClient *redis.Client
	limit       int
	window      time.Duration
	logger      *logrus.Logger
	now         func() time.Time
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration, logger *logrus.Logger) *RateLimiter {
	if logger == nil {
		logger = logrus.New()
	}
	return &RateLimiter{
		redisClient: redisClient,
		limit:       limit,
		window:      window,
		logger:      logger,
		now:         time.Now,
	}
}

// Allow records one request for key and reports whether it fits in the window. When Redis
// fails the request is allowed.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, *RateLimitInfo) {
	now := rl.now()
	windowStart := now.Add(-rl.window)
	redisKey := fmt.Sprintf("rate_limit:page:%s", key)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipe := rl.redisClient.Pipeline()

	// Remove expired entries
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart.UnixNano(), 10))

	// Count current requests in window
	countCmd := pipe.ZCard(ctx, redisKey)

	// Add current request
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})

	pipe.Expire(ctx, redisKey, rl.window)

	info := &RateLimitInfo{Limit: rl.limit, ResetTime: now.Add(rl.window).Unix()}

	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.WithError(err).Error("Failed to execute rate limit pipeline")
		info.Remaining = rl.limit - 1
		return true, info
	}

	count := int(countCmd.Val())
	info.Remaining = rl.limit - count - 1
	if info.Remaining < 0 {
		info.Remaining = 0
	}
	return count < rl.limit, info
}

// Reset clears the window for key.
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redisClient.Del(ctx, fmt.Sprintf("rate_limit:page:%s", key)).Err()
}
