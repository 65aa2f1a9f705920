// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys picked up by the context-aware handler.
const (
	RequestIDKey LogContextKey = "request_id"
	UserIDKey    LogContextKey = "user_id"
	TraceIDKey   LogContextKey = "trace_id"
)

// Logger is the application logger. It is replaced by InitLogger at startup.
var Logger = slog.New(&ctxHandler{slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})})

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Any("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

// NewLogger builds a context-aware logger. Production gets JSON, everything
// else gets the text handler.
func NewLogger(w io.Writer, env string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(&ctxHandler{handler})
}

// InitLogger installs the application logger and makes it the slog default.
func InitLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "development" || env == "" {
		level = slog.LevelDebug
	}
	Logger = NewLogger(os.Stdout, env, level)
	slog.SetDefault(Logger)
	return Logger
}

// WithUserID returns a context carrying the user id for log records.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
