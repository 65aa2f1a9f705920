// Package middleware provides request-scoped Fiber middleware.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"vibewall/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals written by this package and the session middleware.
const (
	LocalRequestID = "requestid"
	LocalUserID    = "userID"
	LocalTraceID   = "traceID"
)

// ContextMiddleware copies request, user and trace ids from Fiber locals
// into the user context so the logger can pick them up.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if rid, ok := c.Locals(LocalRequestID).(string); ok {
			ctx = context.WithValue(ctx, observability.RequestIDKey, rid)
		}
		if uid, ok := c.Locals(LocalUserID).(uint); ok {
			ctx = observability.WithUserID(ctx, uid)
		}
		if tid, ok := c.Locals(LocalTraceID).(string); ok {
			ctx = context.WithValue(ctx, observability.TraceIDKey, tid)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger logs one line per request.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			observability.Logger.ErrorContext(c.UserContext(), "request failed", fields...)
		} else {
			observability.Logger.InfoContext(c.UserContext(), "request processed", fields...)
		}
		return err
	}
}
