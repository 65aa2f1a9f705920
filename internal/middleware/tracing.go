package middleware

import (
	"fmt"

	"vibewall/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware starts a server span per request. Backend calls made
// with the request's user context become its children.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, fmt.Sprintf("%s %s", c.Method(), c.Path()),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.path", c.Path()),
			),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Locals(LocalTraceID, sc.TraceID().String())
			c.Set("X-Trace-ID", sc.TraceID().String())
		}
		if rid := c.Locals(LocalRequestID); rid != nil {
			span.SetAttributes(attribute.String("request.id", fmt.Sprint(rid)))
		}

		c.SetUserContext(ctx)
		err := c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Response().StatusCode()))
		if err != nil {
			span.RecordError(err)
		}
		if uid := c.Locals(LocalUserID); uid != nil {
			span.SetAttributes(attribute.String("user.id", fmt.Sprint(uid)))
		}
		return err
	}
}
