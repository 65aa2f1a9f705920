package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vibewall/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// CheckRateLimit counts one hit for id on resource and reports whether it
// is within limit for the current window.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, errors.New("redis client is nil")
	}
	key := fmt.Sprintf("rl:%s:%s", resource, id)

	// The key is created with its TTL in the same transaction as the first
	// hit, so a counter can never be left without an expiry.
	var incr *redis.IntCmd
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	cnt, err := incr.Result()
	if err != nil {
		return false, err
	}
	return cnt <= int64(limit), nil
}

// RateLimit allows limit requests per window per client IP on a named
// resource. When Redis fails the request is let through.
func RateLimit(rdb *redis.Client, resource string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, "ip:"+c.IP(), limit, window)
		if err != nil {
			observability.Logger.WarnContext(c.UserContext(), "rate limit unavailable",
				slog.String("resource", resource),
				slog.String("error", err.Error()),
			)
			return c.Next()
		}
		if !allowed {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many attempts, please wait a minute and try again")
		}
		return c.Next()
	}
}
