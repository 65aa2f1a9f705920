package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vibewall/internal/observability"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestCheckRateLimit(t *testing.T) {
	rdb, mr := setupRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := CheckRateLimit(ctx, rdb, "login", "ip:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, err := CheckRateLimit(ctx, rdb, "login", "ip:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("rl:login:ip:1"))

	ok, err = CheckRateLimit(ctx, rdb, "login", "ip:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "limits are per id")

	mr.FastForward(2 * time.Minute)
	ok, err = CheckRateLimit(ctx, rdb, "login", "ip:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "window expiry resets the count")

	_, err = CheckRateLimit(ctx, nil, "login", "ip:1", 3, time.Minute)
	assert.Error(t, err)
}

func TestCheckRateLimit_WindowStartsAtFirstHit(t *testing.T) {
	rdb, mr := setupRedis(t)
	ctx := context.Background()

	_, err := CheckRateLimit(ctx, rdb, "login", "ip:9", 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("rl:login:ip:9"))
	got, err := mr.Get("rl:login:ip:9")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	mr.FastForward(40 * time.Second)
	ok, err := CheckRateLimit(ctx, rdb, "login", "ip:9", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 20*time.Second, mr.TTL("rl:login:ip:9"), "later hits keep the window")

	ok, err = CheckRateLimit(ctx, rdb, "login", "ip:9", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(21 * time.Second)
	assert.False(t, mr.Exists("rl:login:ip:9"))
}

func TestRateLimit_Middleware(t *testing.T) {
	rdb, mr := setupRedis(t)
	app := fiber.New()
	app.Post("/login", RateLimit(rdb, "login", 1, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	mr.Close()
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "redis failure lets requests through")
}

func TestContextMiddleware_LogsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	prev := observability.Logger
	observability.Logger = observability.NewLogger(&buf, "production", slog.LevelInfo)
	t.Cleanup(func() { observability.Logger = prev })

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, uint(12))
		return c.Next()
	})
	app.Use(ContextMiddleware())
	app.Use(StructuredLogger())
	app.Get("/feed", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "request processed", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, float64(12), line["user_id"])
	assert.Equal(t, "/feed", line["path"])
}

func TestTracingMiddleware_PassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
