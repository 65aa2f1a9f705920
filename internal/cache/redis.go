// Package cache connects to Redis, which holds sessions and rate-limit counters.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vibewall/internal/observability"

	"github.com/redis/go-redis/v9"
)

type metricsHook struct{}

func (metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// Options parses addr, which is either a redis:// URL or host:port.
func Options(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}

// Connect opens a client and checks it with PING. It returns nil and the
// error when Redis cannot be reached; callers then run without it.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("REDIS_URL not set")
	}
	opts, err := Options(addr)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	rdb.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	observability.Logger.InfoContext(ctx, "redis connected", slog.String("addr", opts.Addr))
	return rdb, nil
}
